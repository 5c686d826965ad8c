package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	"github.com/Sefaria/sefaria-mcp/internal/sefaria"
)

// Instructions is sent to clients when a session starts.
const Instructions = `Tools for the Sefaria library of Jewish texts.
Start with clarify_name_argument when a title, reference or topic is uncertain.
Use get_text to read a passage, text_search or search_in_book to find passages,
and get_links_between_texts to follow commentaries and cross-references.`

const searchTips = `

SEARCH TIPS:
- Hebrew/Aramaic searches are more reliable than English translations
- English searches can be hit-and-miss due to translation variations
- If no results found, try searching with fewer words
- Use specific Hebrew terms when possible for better accuracy`

// Catalog binds the Sefaria tools to client. now supplies the clock used
// for the Hebrew date of the calendar tool; nil means time.Now.
type Catalog struct {
	client *sefaria.Client
	now    func() time.Time
}

// NewCatalog creates a Catalog.
func NewCatalog(client *sefaria.Client, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{client: client, now: now}
}

// Descriptors returns every tool, in the order they are advertised.
func (c *Catalog) Descriptors() []api.ToolDescriptor {
	return []api.ToolDescriptor{
		{
			Name:        "get_text",
			Description: "Retrieves the actual text content from a specific reference in the Jewish library.",
			Args: []api.ArgSpec{
				referenceArg,
				{
					Name:        "version_language",
					Description: "Which language version to retrieve - 'source', 'english', 'both', or omit for all.",
					Schema: map[string]interface{}{
						"type": "string",
						"enum": []interface{}{sefaria.VersionSource, sefaria.VersionEnglish, sefaria.VersionBoth},
					},
				},
			},
			Operation: c.getText,
		},
		{
			Name:        "text_search",
			Description: "Searches across the entire Jewish library for passages containing specific terms." + searchTips,
			Args: []api.ArgSpec{
				{Name: "query", Type: "string", Required: true, Description: "Search terms (Hebrew/Aramaic preferred for best results)."},
				filtersArg,
				sizeArg,
			},
			Operation: c.textSearch,
		},
		{
			Name:        "get_current_calendar",
			Description: "Provides current Jewish calendar information including Hebrew date, parasha, holidays, etc.",
			Operation:   c.currentCalendar,
		},
		{
			Name: "english_semantic_search",
			Description: `Performs semantic similarity search on English embeddings of texts from Sefaria.

This tool uses semantic similarity to find text chunks that are conceptually related to your query, even if they don't contain the exact same words. Through this you can discover texts that traditional keyword search or link search might miss.

SEARCH TIPS:
- This database is encoded from English. Works well only with English queries
- Search for phrases and sentences close to what you want to find. Query for something close to the answer, not the question.`,
			Args: []api.ArgSpec{
				{Name: "query", Type: "string", Required: true, Description: "The search query to find semantically similar text chunks."},
				{
					Name: "filters",
					Description: "Optional metadata filters: document_categories, authors, " +
						"eras (Tannaim, Amoraim, Geonim, Rishonim, Acharonim, Contemporary), topics, places. " +
						"Each is a list of strings.",
					Schema: map[string]interface{}{
						"type": "object",
						"additionalProperties": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
					},
				},
			},
			Operation: c.semanticSearch,
		},
		{
			Name:        "get_links_between_texts",
			Description: "Finds all cross-references and connections to a specific text passage.",
			Args: []api.ArgSpec{
				referenceArg,
				{
					Name:        "with_text",
					Description: "Whether to include the actual text content ('0' or '1').",
					Default:     "0",
					Schema:      map[string]interface{}{"type": "string", "enum": []interface{}{"0", "1"}},
				},
			},
			Operation: c.links,
		},
		{
			Name:        "search_in_book",
			Description: "Searches for content within one specific book or text work." + searchTips,
			Args: []api.ArgSpec{
				{Name: "query", Type: "string", Required: true, Description: "Search terms to find within the specified book (Hebrew/Aramaic preferred)."},
				{Name: "book_name", Type: "string", Required: true, Description: "Exact name of the book to search within."},
				sizeArg,
			},
			Operation: c.searchInBook,
		},
		{
			Name:        "search_in_dictionaries",
			Description: "Searches specifically within Jewish reference dictionaries." + searchTips,
			Args: []api.ArgSpec{
				{Name: "query", Type: "string", Required: true, Description: "Hebrew, Aramaic, or English term to look up (Hebrew/Aramaic preferred)."},
			},
			Operation: c.searchDictionaries,
		},
		{
			Name:        "get_english_translations",
			Description: "Retrieves all available English translations for a specific text reference.",
			Args:        []api.ArgSpec{referenceArg},
			Operation:   c.englishTranslations,
		},
		{
			Name:        "get_topic_details",
			Description: "Retrieves detailed information about specific topics in Jewish thought and texts.",
			Args: []api.ArgSpec{
				{Name: "topic_slug", Type: "string", Required: true, Description: "Topic identifier slug (e.g. 'moses', 'sabbath')."},
				{Name: "with_links", Type: "boolean", Default: false, Description: "Include links to related topics."},
				{Name: "with_refs", Type: "boolean", Default: false, Description: "Include text references tagged with this topic."},
			},
			Operation: c.topicDetails,
		},
		{
			Name:        "clarify_name_argument",
			Description: "Validates and autocompletes text names, book titles, references, topic slugs, author names, and categories.",
			Args: []api.ArgSpec{
				{Name: "name", Type: "string", Required: true, Description: "Partial or complete name to validate/complete."},
				{Name: "limit", Description: "Maximum number of suggestions to return.", Schema: map[string]interface{}{"type": "integer", "minimum": 0}},
				{Name: "type_filter", Type: "string", Description: "Filter results by type (e.g., 'ref', 'Topic', 'Collection')."},
			},
			Operation: c.clarifyName,
		},
		{
			Name:        "clarify_search_path_filter",
			Description: "Converts a book name into a proper search filter path.",
			Args: []api.ArgSpec{
				{Name: "book_name", Type: "string", Required: true, Description: "Name of the book to convert."},
			},
			Operation: c.searchPathFilter,
		},
		{
			Name:        "get_text_or_category_shape",
			Description: "Retrieves the hierarchical structure and organization of texts or categories.",
			Args: []api.ArgSpec{
				{Name: "name", Type: "string", Required: true, Description: "Text title or category name."},
			},
			Operation: c.shape,
		},
		{
			Name:        "get_text_catalogue_info",
			Description: "Retrieves the bibliographic and structural information (index) for a text or work.",
			Args: []api.ArgSpec{
				{Name: "title", Type: "string", Required: true, Description: "Title of the text or work (e.g. 'Genesis', 'Mishnah Berakhot')."},
			},
			Operation: c.catalogueInfo,
		},
		{
			Name:        "get_available_manuscripts",
			Description: "Retrieves historical manuscript metadata and image URLs for text passages.",
			Args: []api.ArgSpec{
				{Name: "reference", Type: "string", Required: true, Description: "Specific text reference to find manuscripts for."},
			},
			Operation: c.manuscripts,
		},
		{
			Name:        "get_manuscript_image",
			Description: "Downloads and returns a specific manuscript image from a given image URL.",
			Args: []api.ArgSpec{
				{Name: "image_url", Type: "string", Required: true, Description: "The URL of the manuscript image to download."},
				{Name: "manuscript_title", Type: "string", Description: "Title or description for the manuscript."},
			},
			Operation: c.manuscriptImage,
		},
	}
}

var (
	referenceArg = api.ArgSpec{
		Name:        "reference",
		Type:        "string",
		Required:    true,
		Description: "Specific text reference (e.g. 'Genesis 1:1', 'Berakhot 2a').",
	}
	filtersArg = api.ArgSpec{
		Name:        "filters",
		Description: "Category paths to limit search scope, e.g. 'Tanakh', 'Talmud/Bavli' or 'Tanakh/Torah'.",
		Schema: map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"type": "string"},
				map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
		},
	}
	sizeArg = api.ArgSpec{
		Name:        "size",
		Description: "Maximum number of results to return.",
		Default:     sefaria.DefaultSearchSize,
		Schema:      map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100},
	}
)

func (c *Catalog) getText(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.GetText(ctx, log, args.String("reference"), args.String("version_language"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) textSearch(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	results, err := c.client.SearchTexts(ctx, log, args.String("query"), args.StringSlice("filters"),
		args.Int("size", sefaria.DefaultSearchSize))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(results), nil
}

func (c *Catalog) currentCalendar(ctx context.Context, log api.LogSink, _ api.Args) (api.Result, error) {
	out, err := c.client.Calendar(ctx, log, c.now())
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) semanticSearch(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.SemanticSearch(ctx, log, args.String("query"), args.Map("filters"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) links(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	reference := args.String("reference")
	if reference == "" {
		return api.Text("No reference provided"), nil
	}
	out, err := c.client.Links(ctx, log, reference, args.String("with_text"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) searchInBook(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	results, err := c.client.SearchInBook(ctx, log, args.String("query"), args.String("book_name"),
		args.Int("size", sefaria.DefaultSearchSize))
	var noPath *sefaria.NoFilterPathError
	if errors.As(err, &noPath) {
		return api.Text(noPath.Error()), nil
	}
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(results), nil
}

func (c *Catalog) searchDictionaries(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	entries, err := c.client.SearchDictionaries(ctx, log, args.String("query"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(entries), nil
}

func (c *Catalog) englishTranslations(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.EnglishTranslations(ctx, log, args.String("reference"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) topicDetails(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	slug := args.String("topic_slug")
	if slug == "" {
		return api.Text("No topic slug provided"), nil
	}
	out, err := c.client.Topic(ctx, log, slug, args.Bool("with_links", false), args.Bool("with_refs", false))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) clarifyName(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.Name(ctx, log, args.String("name"), args.IntPtr("limit"), args.String("type_filter"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) searchPathFilter(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	path, err := c.client.SearchPathFilter(ctx, log, args.String("book_name"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Text(path), nil
}

func (c *Catalog) shape(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.Shape(ctx, log, args.String("name"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) catalogueInfo(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	out, err := c.client.Index(ctx, log, args.String("title"))
	if err != nil {
		return api.Result{}, err
	}
	return api.Structured(out), nil
}

func (c *Catalog) manuscripts(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	reference := args.String("reference")
	out, err := c.client.Manuscripts(ctx, log, reference)
	if err != nil {
		return api.Result{}, err
	}
	if sefaria.IsEmpty(out) {
		return api.Text(fmt.Sprintf("No manuscripts found for reference '%s'", reference)), nil
	}
	return api.Structured(out), nil
}

func (c *Catalog) manuscriptImage(ctx context.Context, log api.LogSink, args api.Args) (api.Result, error) {
	data, info, err := c.client.ManuscriptImage(ctx, log, args.String("image_url"), args.String("manuscript_title"))
	if err != nil {
		return api.Result{}, err
	}
	log.Debug("Manuscript image %s: %d bytes (%s)", info.Filename, info.Size, info.MIMEType)
	return api.Binary(data, info.MIMEType, info), nil
}

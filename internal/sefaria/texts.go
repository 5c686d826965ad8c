package sefaria

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Sefaria/sefaria-mcp/internal/api"
	pkgstrings "github.com/Sefaria/sefaria-mcp/pkg/strings"
)

// Accepted values of the version_language argument of GetText.
const (
	VersionSource  = "source"
	VersionEnglish = "english"
	VersionBoth    = "both"
)

// maxLinkTextRunes bounds the text carried with each link.
const maxLinkTextRunes = 500

var textFields = []string{
	"ref", "versions", "available_versions", "requestedRef", "spanningRefs",
	"textType", "sectionRef", "he", "text", "primary_title",
}

// GetText retrieves the text at reference. versionLanguage selects the
// source text, the English translation, both, or (when empty) every
// version the API returns by default.
func (c *Client) GetText(ctx context.Context, log api.LogSink, reference, versionLanguage string) (interface{}, error) {
	query := url.Values{}
	switch versionLanguage {
	case "":
	case VersionSource:
		query.Add("version", "source")
	case VersionEnglish:
		query.Add("version", "english")
	case VersionBoth:
		query.Add("version", "english")
		query.Add("version", "source")
	default:
		return nil, &api.InvalidArgumentsError{
			Tool:     "get_text",
			Problems: []string{fmt.Sprintf("version_language must be one of source, english, both; got %q", versionLanguage)},
		}
	}

	data, err := c.getJSON(ctx, log, c.apiURL("/api/v3/texts/", reference, query))
	if err != nil {
		return nil, err
	}
	return trimText(data), nil
}

// trimText keeps the fields of a text response that matter to a reader and
// reduces version records to their title, language and content.
func trimText(data interface{}) interface{} {
	m, ok := data.(map[string]interface{})
	if !ok {
		return data
	}
	out := pick(m, textFields...)

	if versions, ok := out["versions"].([]interface{}); ok {
		trimmed := make([]interface{}, 0, len(versions))
		for _, v := range versions {
			vm, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			trimmed = append(trimmed, map[string]interface{}{
				"text":               getOr(vm, "text", ""),
				"versionTitle":       getOr(vm, "versionTitle", ""),
				"languageFamilyName": getOr(vm, "languageFamilyName", ""),
				"versionSource":      getOr(vm, "versionSource", ""),
			})
		}
		out["versions"] = trimmed
	}

	if available, ok := out["available_versions"].([]interface{}); ok {
		trimmed := make([]interface{}, 0, len(available))
		for _, v := range available {
			vm, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			trimmed = append(trimmed, map[string]interface{}{
				"versionTitle":       getOr(vm, "versionTitle", ""),
				"languageFamilyName": getOr(vm, "languageFamilyName", ""),
			})
		}
		out["available_versions"] = trimmed
	}

	return out
}

// Translation is one English version of a passage.
type Translation struct {
	VersionTitle string      `json:"versionTitle"`
	Text         interface{} `json:"text"`
}

// Translations lists every English version of a passage.
type Translations struct {
	Reference           string        `json:"reference"`
	EnglishTranslations []Translation `json:"englishTranslations"`
}

// EnglishTranslations retrieves all English versions of reference.
func (c *Client) EnglishTranslations(ctx context.Context, log api.LogSink, reference string) (*Translations, error) {
	query := url.Values{"version": {"english|all"}}
	data, err := c.getJSON(ctx, log, c.apiURL("/api/v3/texts/", reference, query))
	if err != nil {
		return nil, err
	}

	out := &Translations{Reference: reference, EnglishTranslations: []Translation{}}
	m, _ := data.(map[string]interface{})
	versions, _ := m["versions"].([]interface{})
	for _, v := range versions {
		vm, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		title, _ := getOr(vm, "versionTitle", "").(string)
		out.EnglishTranslations = append(out.EnglishTranslations, Translation{
			VersionTitle: title,
			Text:         getOr(vm, "text", ""),
		})
	}
	return out, nil
}

// Link is one connection between two passages.
type Link struct {
	Ref        string `json:"ref"`
	SourceRef  string `json:"sourceRef"`
	AnchorText string `json:"anchorText"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	Text       string `json:"text,omitempty"`
}

// Links retrieves the connections of reference. withText is passed through
// as the API's with_text flag ("0" or "1").
func (c *Client) Links(ctx context.Context, log api.LogSink, reference, withText string) (interface{}, error) {
	if withText == "" {
		withText = "0"
	}
	query := url.Values{"with_text": {withText}}
	data, err := c.getJSON(ctx, log, c.apiURL("/api/links/", reference, query))
	if err != nil {
		return nil, err
	}
	return trimLinks(data), nil
}

func trimLinks(data interface{}) interface{} {
	list, ok := data.([]interface{})
	if !ok {
		return data
	}
	links := make([]Link, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		link := Link{
			Ref:        stringField(m, "ref"),
			SourceRef:  stringField(m, "sourceRef"),
			AnchorText: stringField(m, "anchorText"),
			Type:       stringField(m, "type"),
			Category:   stringField(m, "category"),
		}
		if text, ok := m["text"].(string); ok {
			link.Text = pkgstrings.Truncate(text, maxLinkTextRunes)
		}
		links = append(links, link)
	}
	return links
}

// pick returns a copy of m restricted to keys.
func pick(m map[string]interface{}, keys ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

func getOr(m map[string]interface{}, key string, def interface{}) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// stringField returns m[key] when it is a string, and "" otherwise.
func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

package sefaria

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hebcal/hdate"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// maxTopicItems bounds the links and refs returned with a topic.
const maxTopicItems = 10

var indexFields = []string{
	"title", "heTitle", "titleVariants", "schema", "categories",
	"sectionNames", "addressTypes", "length", "lengths",
	"textDepth", "primaryTitle", "compDate", "era", "authors",
}

var topicFields = []string{
	"slug", "titles", "description", "categoryDescription", "numSources",
	"primaryTitle", "image", "good_to_promote",
}

// Name asks the name API what name refers to. limit and typeFilter are
// optional.
func (c *Client) Name(ctx context.Context, log api.LogSink, name string, limit *int, typeFilter string) (interface{}, error) {
	query := url.Values{}
	if limit != nil {
		query.Set("limit", strconv.Itoa(*limit))
	}
	if typeFilter != "" {
		query.Set("type", typeFilter)
	}
	return c.getJSON(ctx, log, c.apiURL("/api/name/", name, query))
}

// Shape returns the structure of a text, or the texts of a category.
func (c *Client) Shape(ctx context.Context, log api.LogSink, name string) (interface{}, error) {
	return c.getJSON(ctx, log, c.apiURL("/api/shape/", name, nil))
}

// Index returns the bibliographic record of title.
func (c *Client) Index(ctx context.Context, log api.LogSink, title string) (interface{}, error) {
	data, err := c.getJSON(ctx, log, c.apiURL("/api/v2/raw/index/", title, nil))
	if err != nil {
		return nil, err
	}
	if m, ok := data.(map[string]interface{}); ok {
		return pick(m, indexFields...), nil
	}
	return data, nil
}

// Topic returns a topic with, optionally, its related topics and tagged
// references. Both lists are cut to their first ten entries.
func (c *Client) Topic(ctx context.Context, log api.LogSink, slug string, withLinks, withRefs bool) (interface{}, error) {
	query := url.Values{}
	if withLinks {
		query.Set("with_links", "1")
	}
	if withRefs {
		query.Set("with_refs", "1")
	}
	data, err := c.getJSON(ctx, log, c.apiURL("/api/v2/topics/", slug, query))
	if err != nil {
		return nil, err
	}
	return trimTopic(data), nil
}

func trimTopic(data interface{}) interface{} {
	m, ok := data.(map[string]interface{})
	if !ok {
		return data
	}
	out := pick(m, topicFields...)

	if links, ok := m["links"].([]interface{}); ok {
		out["links"] = links[:min(len(links), maxTopicItems)]
	}
	if refs, ok := m["refs"].([]interface{}); ok {
		out["refs"] = refs[:min(len(refs), maxTopicItems)]
		out["refs_note"] = fmt.Sprintf("Showing first %d of %d total refs", maxTopicItems, len(refs))
	}
	return out
}

// Manuscripts lists the manuscript images available for reference. An
// empty list is returned as is.
func (c *Client) Manuscripts(ctx context.Context, log api.LogSink, reference string) (interface{}, error) {
	return c.getJSON(ctx, log, c.apiURL("/api/manuscripts/", reference, nil))
}

// IsEmpty reports whether an upstream JSON value carries nothing: null, an
// empty list or an empty object.
func IsEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

// HebrewDateKey is the field added to the calendar response.
const HebrewDateKey = "Hebrew Date"

// Calendar returns today's learning schedule with the current Hebrew date
// added under HebrewDateKey. now is the local time used for the Hebrew
// date; it may be off by a day relative to the caller's timezone.
func (c *Client) Calendar(ctx context.Context, log api.LogSink, now time.Time) (map[string]interface{}, error) {
	data, err := c.getJSON(ctx, log, c.apiBase+"/api/calendars")
	if err != nil {
		return nil, err
	}
	m, ok := data.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{URL: c.apiBase + "/api/calendars", Err: fmt.Errorf("expected an object, got %T", data)}
	}

	m[HebrewDateKey] = HebrewDate(now)
	return m, nil
}

// HebrewDate renders t as a Hebrew calendar date, for example
// "Sunday, 17 Cheshvan 5787".
func HebrewDate(t time.Time) string {
	return fmt.Sprintf("%s, %s", t.Weekday(), hdate.FromTime(t).String())
}

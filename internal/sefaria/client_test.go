package sefaria

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

var nop = api.NopLogSink{}

// newUpstream starts a fake Sefaria API and returns a client pointed at it
// for both the API and the AI service.
func newUpstream(t *testing.T, mux *http.ServeMux, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithAPIBaseURL(srv.URL), WithAIBaseURL(srv.URL + "/ai")}, opts...)
	return NewClient(opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := io.WriteString(w, body)
	require.NoError(t, err)
}

func encode(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestGetText_Genesis(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/texts/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/texts/Genesis 1:1", r.URL.Path)
		assert.Equal(t, []string{"english", "source"}, r.URL.Query()["version"])
		writeJSON(t, w, `{
			"ref": "Genesis 1:1",
			"heRef": "בראשית א׳:א׳",
			"sectionRef": "Genesis 1",
			"versions": [
				{"text": "בְּרֵאשִׁית בָּרָא אֱלֹהִים", "versionTitle": "Miqra according to the Masorah", "languageFamilyName": "hebrew", "versionSource": "https://example.org/mam", "license": "CC-BY-SA", "status": "locked"},
				{"text": "When God began to create heaven and earth", "versionTitle": "The Contemporary Torah", "languageFamilyName": "english", "versionSource": "https://example.org/jps"}
			],
			"available_versions": [{"versionTitle": "Miqra according to the Masorah", "languageFamilyName": "hebrew", "shortVersionTitle": "MAM"}],
			"next": "Genesis 1:2",
			"index_offsets_by_depth": {"1": [0]}
		}`)
	})
	c := newUpstream(t, mux)

	out, err := c.GetText(context.Background(), nop, "Genesis 1:1", VersionBoth)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	assert.Equal(t, "Genesis 1:1", m["ref"])
	assert.Equal(t, "Genesis 1", m["sectionRef"])
	assert.NotContains(t, m, "next")
	assert.NotContains(t, m, "heRef")
	assert.NotContains(t, m, "index_offsets_by_depth")

	versions := m["versions"].([]interface{})
	require.Len(t, versions, 2)
	source := versions[0].(map[string]interface{})
	assert.Equal(t, "בְּרֵאשִׁית בָּרָא אֱלֹהִים", source["text"])
	assert.Equal(t, "hebrew", source["languageFamilyName"])
	assert.NotContains(t, source, "license")
	assert.Len(t, source, 4)

	translation := versions[1].(map[string]interface{})
	assert.Equal(t, "english", translation["languageFamilyName"])
	assert.Equal(t, "When God began to create heaven and earth", translation["text"])

	available := m["available_versions"].([]interface{})
	assert.Equal(t, map[string]interface{}{
		"versionTitle":       "Miqra according to the Masorah",
		"languageFamilyName": "hebrew",
	}, available[0])
}

func TestGetText_VersionLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want []string
	}{
		{"", nil},
		{VersionSource, []string{"source"}},
		{VersionEnglish, []string{"english"}},
		{VersionBoth, []string{"english", "source"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/v3/texts/", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.URL.Query()["version"])
				writeJSON(t, w, `{"ref":"Exodus 1:1"}`)
			})
			c := newUpstream(t, mux)
			_, err := c.GetText(context.Background(), nop, "Exodus 1:1", tt.lang)
			require.NoError(t, err)
		})
	}

	_, err := NewClient().GetText(context.Background(), nop, "Exodus 1:1", "klingon")
	require.Error(t, err)
	assert.Equal(t, api.ErrorKindInvalidArguments, api.KindOf(err))
}

func TestSearchTexts_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search-wrapper/es8", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"hits":{"total":{"value":0},"hits":[]}}`)
	})
	c := newUpstream(t, mux)

	results, err := c.SearchTexts(context.Background(), nop, "zzzqqqnonsense", nil, 0)
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, "[]", encode(t, results))
}

func TestSearchTexts_Request(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search-wrapper/es8", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, "שבת", body["query"])
		assert.Equal(t, float64(10), body["size"])
		assert.Equal(t, "naive_lemmatizer", body["field"])
		assert.Equal(t, []interface{}{"Tanakh", "Talmud/Bavli"}, body["filters"])
		assert.Equal(t, []interface{}{nil, nil}, body["filter_fields"])
		assert.Equal(t, []interface{}{"pagesheetrank"}, body["sort_fields"])
		assert.Equal(t, 0.04, body["sort_score_missing"])
		assert.Equal(t, float64(10), body["slop"])
		assert.Equal(t, "text", body["type"])

		writeJSON(t, w, `{"hits":{"hits":[
			{"_source":{"ref":"Exodus 20:8","categories":["Tanakh","Torah"],"exact":"Remember the sabbath day"},
			 "highlight":{"exact":["Remember the <b>sabbath</b>","keep it holy"]}}
		]}}`)
	})
	c := newUpstream(t, mux)

	results, err := c.SearchTexts(context.Background(), nop, "שבת", []string{"Tanakh", "Talmud/Bavli"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Exodus 20:8", results[0].Ref)
	assert.Equal(t, []interface{}{"Tanakh", "Torah"}, results[0].Categories)
	assert.Equal(t, "Remember the <b>sabbath</b> [...] keep it holy", results[0].TextSnippet)
	assert.Empty(t, results[0].OriginalFilter)
	assert.NotContains(t, encode(t, results), "filter_correction")
}

func TestSearchTexts_FilterFallback(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search-wrapper/es8", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if len(body.Filters) > 0 {
			writeJSON(t, w, `{"hits":{"hits":[]}}`)
			return
		}
		long := strings.Repeat("א", 400)
		writeJSON(t, w, `{"hits":{"hits":[{"_source":{"ref":"Berakhot 2a","naive_lemmatizer":"`+long+`"}}]}}`)
	})
	c := newUpstream(t, mux)

	results, err := c.SearchTexts(context.Background(), nop, "קריאת שמע", []string{"Mishnah"}, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Berakhot 2a", r.Ref)
	assert.Equal(t, []string{"Mishnah"}, r.OriginalFilter)
	assert.Equal(t, "Removed filters due to no results", r.FilterCorrection)
	assert.Equal(t, strings.Repeat("א", 300)+"...", r.TextSnippet)
	assert.Equal(t, []interface{}{}, r.Categories)
}

func TestSearchInBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search-path-filter/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/Nowhere") {
			_, _ = io.WriteString(w, "  \n")
			return
		}
		_, _ = io.WriteString(w, "Midrash/Aggadah/Midrash Rabbah/Bereishit Rabbah\n")
	})
	mux.HandleFunc("POST /api/search-wrapper/es8", func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"Midrash/Aggadah/Midrash Rabbah/Bereishit Rabbah"}, body.Filters)
		assert.Equal(t, 3, body.Size)
		writeJSON(t, w, `{"hits":{"hits":[{"_source":{"ref":"Bereishit Rabbah 1:1"}}]}}`)
	})
	c := newUpstream(t, mux)

	results, err := c.SearchInBook(context.Background(), nop, "אור", "Bereishit Rabbah", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Bereishit Rabbah 1:1", results[0].Ref)

	_, err = c.SearchInBook(context.Background(), nop, "אור", "Nowhere", 3)
	var noPath *NoFilterPathError
	require.True(t, errors.As(err, &noPath))
	assert.Equal(t, "Could not find valid filter path for book 'Nowhere'", err.Error())
}

func TestSearchDictionaries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search-wrapper/es8", func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 8, body.Size)
		assert.Equal(t, lexiconPaths(), body.Filters)

		writeJSON(t, w, `{"hits":{"hits":[
			{"_source":{"ref":"Jastrow, שָׁלוֹם","titleVariants":["שָׁלוֹם","shalom"],"path":"Reference/Dictionary/Jastrow","exact":"peace, welfare"}},
			{"_source":{"ref":"Other, x","titleVariants":["x"],"path":"Reference/Dictionary/Unknown","exact":"?"}},
			{"_source":{"ref":"BDB, שָׁלוֹם","titleVariants":[],"path":"Reference/Dictionary/BDB","exact":"completeness"}}
		]}}`)
	})
	c := newUpstream(t, mux)

	entries, err := c.SearchDictionaries(context.Background(), nop, "שלום")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, DictionaryEntry{
		Ref:         "Jastrow, שָׁלוֹם",
		Headword:    "שָׁלוֹם",
		LexiconName: "Jastrow Dictionary",
		Text:        "peace, welfare",
	}, entries[0])
	assert.Equal(t, "BDB Dictionary", entries[1].LexiconName)
	assert.Equal(t, "", entries[1].Headword)
}

func TestLexiconName(t *testing.T) {
	name, ok := LexiconName("Reference/Encyclopedic Works/Kovetz Yesodot VaChakirot")
	assert.True(t, ok)
	assert.Equal(t, "Kovetz Yesodot VaChakirot", name)

	_, ok = LexiconName("Reference/Dictionary/Krupnik")
	assert.False(t, ok)
}

func TestLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/links/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("with_text"))
		writeJSON(t, w, encode(t, []interface{}{
			map[string]interface{}{
				"ref": "Rashi on Genesis 1:1:1", "sourceRef": "Genesis 1:1", "anchorText": "בראשית",
				"type": "commentary", "category": "Commentary", "text": strings.Repeat("x", 600),
				"index_title": "Rashi on Genesis", "collectiveTitle": map[string]interface{}{"en": "Rashi"},
			},
			map[string]interface{}{"ref": "Shabbat 88a", "category": "Talmud", "text": []interface{}{"not", "a", "string"}},
		}))
	})
	c := newUpstream(t, mux)

	out, err := c.Links(context.Background(), nop, "Genesis 1:1", "1")
	require.NoError(t, err)

	links := out.([]Link)
	require.Len(t, links, 2)
	assert.Equal(t, "commentary", links[0].Type)
	assert.Equal(t, strings.Repeat("x", 500)+"...", links[0].Text)
	assert.Equal(t, "", links[1].Text)
	assert.Equal(t, "", links[1].SourceRef)
}

func TestEnglishTranslations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/texts/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "english|all", r.URL.Query().Get("version"))
		writeJSON(t, w, `{"versions":[
			{"versionTitle":"The Koren Jerusalem Bible","text":"In the beginning","language":"en"},
			{"versionTitle":"JPS 1917","text":["a","b"]}
		]}`)
	})
	c := newUpstream(t, mux)

	out, err := c.EnglishTranslations(context.Background(), nop, "Genesis 1:1")
	require.NoError(t, err)
	assert.Equal(t, "Genesis 1:1", out.Reference)
	require.Len(t, out.EnglishTranslations, 2)
	assert.Equal(t, Translation{VersionTitle: "The Koren Jerusalem Bible", Text: "In the beginning"}, out.EnglishTranslations[0])
	assert.Equal(t, []interface{}{"a", "b"}, out.EnglishTranslations[1].Text)
}

func TestTopicTrimming(t *testing.T) {
	refs := make([]interface{}, 25)
	for i := range refs {
		refs[i] = map[string]interface{}{"ref": "Genesis 1:1"}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/topics/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/topics/moses", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("with_refs"))
		assert.Equal(t, "", r.URL.Query().Get("with_links"))
		writeJSON(t, w, encode(t, map[string]interface{}{
			"slug": "moses", "primaryTitle": map[string]interface{}{"en": "Moses"},
			"numSources": 1200, "refs": refs, "pools": []interface{}{"sheets"},
		}))
	})
	c := newUpstream(t, mux)

	out, err := c.Topic(context.Background(), nop, "moses", false, true)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	assert.Len(t, m["refs"], 10)
	assert.Equal(t, "Showing first 10 of 25 total refs", m["refs_note"])
	assert.NotContains(t, m, "pools")
	assert.NotContains(t, m, "links")
	assert.Equal(t, json.Number("1200"), m["numSources"])
}

func TestIndexTrimming(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/raw/index/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/raw/index/Mishnah Berakhot", r.URL.Path)
		writeJSON(t, w, `{"title":"Mishnah Berakhot","heTitle":"משנה ברכות","categories":["Mishnah","Seder Zeraim"],"order":[1,1],"dependence":null}`)
	})
	c := newUpstream(t, mux)

	out, err := c.Index(context.Background(), nop, "Mishnah Berakhot")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"title":      "Mishnah Berakhot",
		"heTitle":    "משנה ברכות",
		"categories": []interface{}{"Mishnah", "Seder Zeraim"},
	}, out)
}

func TestNameShapeManuscripts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/name/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "Topic", r.URL.Query().Get("type"))
		writeJSON(t, w, `{"is_ref":false,"completions":["Moses"]}`)
	})
	mux.HandleFunc("/api/shape/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[{"title":"Genesis","length":50}]`)
	})
	mux.HandleFunc("/api/manuscripts/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	c := newUpstream(t, mux)
	ctx := context.Background()

	limit := 5
	name, err := c.Name(ctx, nop, "Mos", &limit, "Topic")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Moses"}, name.(map[string]interface{})["completions"])

	shape, err := c.Shape(ctx, nop, "Genesis")
	require.NoError(t, err)
	assert.Len(t, shape, 1)

	manuscripts, err := c.Manuscripts(ctx, nop, "Genesis 1:1")
	require.NoError(t, err)
	assert.True(t, IsEmpty(manuscripts))
	assert.False(t, IsEmpty(shape))
}

func TestCalendar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/calendars", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"date":"2026-10-18","calendar_items":[{"title":{"en":"Parashat Hashavua"},"ref":"Genesis 6:9-11:32"}]}`)
	})
	c := newUpstream(t, mux)

	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	out, err := c.Calendar(context.Background(), nop, now)
	require.NoError(t, err)
	assert.Equal(t, HebrewDate(now), out[HebrewDateKey])
	assert.True(t, strings.HasPrefix(out[HebrewDateKey].(string), "Sunday, "))
	assert.Contains(t, out, "calendar_items")
}

func TestSemanticSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ai/api/knn-search", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "love your neighbor", body["query"])
		assert.Equal(t, map[string]interface{}{"eras": []interface{}{"Rishonim"}}, body["filters"])
		writeJSON(t, w, `{"chunks":[{"ref":"Leviticus 19:18"}]}`)
	})
	c := newUpstream(t, mux)

	out, err := c.SemanticSearch(context.Background(), nop, "love your neighbor",
		map[string]interface{}{"eras": []interface{}{"Rishonim"}})
	require.NoError(t, err)
	assert.Contains(t, out, "chunks")
}

func TestErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shape/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Book not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/api/name/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	})
	c := newUpstream(t, mux)
	ctx := context.Background()

	_, err := c.Shape(ctx, nop, "Nonexistent")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, api.ErrorKindUpstreamStatus, api.KindOf(err))
	assert.Contains(t, err.Error(), "Book not found")

	_, err = c.Name(ctx, nop, "x", nil, "")
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, api.ErrorKindDecode, api.KindOf(err))

	// Nothing listens on a closed server.
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = NewClient(WithAPIBaseURL(closed.URL)).Shape(ctx, nop, "Genesis")
	require.Error(t, err)
	assert.Equal(t, api.ErrorKindUpstreamUnreachable, api.KindOf(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Shape(cancelled, nop, "Genesis")
	require.Error(t, err)
	assert.Equal(t, api.ErrorKindCanceled, api.KindOf(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shape/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c := newUpstream(t, mux, WithTimeout(50*time.Millisecond))

	_, err := c.Shape(context.Background(), nop, "Genesis")
	require.Error(t, err)
	assert.Equal(t, api.ErrorKindTimeout, api.KindOf(err))
}

func TestConcurrentGetsAreCollapsed(t *testing.T) {
	var hits atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/shape/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		writeJSON(t, w, `{"title":"Genesis"}`)
	})
	c := newUpstream(t, mux)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]interface{}, callers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.Shape(context.Background(), nop, "Genesis")
	}()
	<-arrived

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Shape(context.Background(), nop, "Genesis")
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, r := range results {
		assert.Equal(t, map[string]interface{}{"title": "Genesis"}, r)
	}
}

func noisePNG(t *testing.T, size int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestManuscriptImage(t *testing.T) {
	big := noisePNG(t, 256)
	small := []byte{0xff, 0xd8, 0xff, 0xe0}

	mux := http.NewServeMux()
	mux.HandleFunc("/images/big.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(big)
	})
	mux.HandleFunc("/images/small", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(small)
	})
	mux.HandleFunc("/images/broken.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write(bytes.Repeat([]byte("not an image "), 5000))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	const limit = 40000
	require.Greater(t, len(big), limit)
	c := NewClient(WithMaxImageBytes(limit))
	ctx := context.Background()

	t.Run("downscaled", func(t *testing.T) {
		data, info, err := c.ManuscriptImage(ctx, nop, srv.URL+"/images/big.png", "")
		require.NoError(t, err)
		assert.True(t, info.WasResized)
		assert.LessOrEqual(t, len(data), limit)
		assert.Equal(t, len(data), info.Size)
		assert.Equal(t, len(big), info.OriginalSize)
		assert.Equal(t, "image/png", info.MIMEType)
		assert.Equal(t, "big.png", info.Filename)
		assert.True(t, strings.HasPrefix(info.Title, "Manuscript: big.png (resized from "))

		_, _, err = image.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
	})

	t.Run("small image kept", func(t *testing.T) {
		data, info, err := c.ManuscriptImage(ctx, nop, srv.URL+"/images/small", "Aleppo Codex")
		require.NoError(t, err)
		assert.Equal(t, small, data)
		assert.False(t, info.WasResized)
		assert.Equal(t, "image/jpeg", info.MIMEType)
		assert.Equal(t, "manuscript.jpg", info.Filename)
		assert.Equal(t, "Aleppo Codex", info.Title)
		assert.True(t, info.Success)
	})

	t.Run("undecodable image kept", func(t *testing.T) {
		data, info, err := c.ManuscriptImage(ctx, nop, srv.URL+"/images/broken.jpg", "")
		require.NoError(t, err)
		assert.Len(t, data, info.OriginalSize)
		assert.False(t, info.WasResized)
		assert.Equal(t, "image/jpeg", info.MIMEType)
	})

	t.Run("bad url", func(t *testing.T) {
		_, _, err := c.ManuscriptImage(ctx, nop, "ftp://example.org/a.jpg", "")
		assert.Equal(t, api.ErrorKindInvalidArguments, api.KindOf(err))
	})
}

package normalize

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

type explodingMarshaler struct{}

func (explodingMarshaler) MarshalJSON() ([]byte, error) {
	panic("boom")
}

func TestNormalize_Text(t *testing.T) {
	p := Normalize(api.Text("Tanakh/Torah/Genesis"))
	assert.Equal(t, "Tanakh/Torah/Genesis", p.Text)
	assert.Equal(t, len("Tanakh/Torah/Genesis"), p.Size)
	assert.False(t, p.IsBinary())
}

func TestNormalize_TextInvalidUTF8(t *testing.T) {
	p := Normalize(api.Text("ok\xffok"))
	assert.True(t, utf8.ValidString(p.Text))
	assert.Equal(t, "ok\uFFFDok", p.Text)
}

func TestNormalize_StructuredPreservesHebrew(t *testing.T) {
	value := map[string]interface{}{
		"ref":  "Genesis 1:1",
		"he":   "בְּרֵאשִׁית בָּרָא אֱלֹהִים",
		"html": "<b>&</b>",
	}
	p := Normalize(api.Structured(value))

	assert.Contains(t, p.Text, "בְּרֵאשִׁית")
	assert.Contains(t, p.Text, "<b>&</b>")
	assert.NotContains(t, p.Text, `\u05`)
	assert.Equal(t, len(p.Text), p.Size)
	assert.True(t, json.Valid([]byte(p.Text)))
	assert.False(t, p.Degraded)
}

func TestNormalize_StructuredFormatting(t *testing.T) {
	p := Normalize(api.Structured(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}", p.Text)
}

func TestNormalize_EmptySliceIsArray(t *testing.T) {
	p := Normalize(api.Structured([]string{}))
	assert.Equal(t, "[]", p.Text)
}

func TestNormalize_Idempotent(t *testing.T) {
	value := map[string]interface{}{"z": 1, "a": []interface{}{"x", 2.5}, "m": map[string]interface{}{"k": true}}
	first := Normalize(api.Structured(value))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Text, Normalize(api.Structured(value)).Text)
	}
}

func TestNormalize_UnencodableDegrades(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"channel", make(chan int)},
		{"func", func() {}},
		{"panicking marshaler", explodingMarshaler{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Payload
			require.NotPanics(t, func() { p = Normalize(api.Structured(tt.value)) })
			assert.True(t, p.Degraded)
			assert.NotEmpty(t, p.Text)
			assert.True(t, utf8.ValidString(p.Text))
			assert.Equal(t, len(p.Text), p.Size)
		})
	}
}

func TestNormalize_Binary(t *testing.T) {
	data := []byte{0xff, 0xd8, 0xff, 0x00, 0x80}
	p := Normalize(api.Binary(data, "image/jpeg", map[string]interface{}{"title": "Manuscript"}))

	assert.True(t, p.IsBinary())
	assert.Equal(t, 5, p.Size)
	assert.Equal(t, "image/jpeg", p.MIMEType)
	assert.JSONEq(t, `{"title":"Manuscript"}`, p.Text)
}

func TestNormalize_BinaryDefaults(t *testing.T) {
	p := Normalize(api.Binary(nil, "", nil))
	assert.True(t, p.IsBinary())
	assert.Equal(t, 0, p.Size)
	assert.Equal(t, "application/octet-stream", p.MIMEType)
	assert.JSONEq(t, `{"mime_type":"application/octet-stream","size":0}`, p.Text)
}

func TestToMCP(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		res := ToMCP(Normalize(api.Text("hello")))
		require.Len(t, res.Content, 1)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "hello", text.Text)
		assert.False(t, res.IsError)
	})

	t.Run("binary", func(t *testing.T) {
		data := []byte{1, 2, 3, 4}
		res := ToMCP(Normalize(api.Binary(data, "image/png", nil)))
		require.Len(t, res.Content, 2)

		img, ok := res.Content[0].(mcp.ImageContent)
		require.True(t, ok)
		assert.Equal(t, "image/png", img.MIMEType)
		decoded, err := base64.StdEncoding.DecodeString(img.Data)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)

		_, ok = res.Content[1].(mcp.TextContent)
		assert.True(t, ok)
	})
}

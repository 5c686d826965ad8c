package gateway

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

func searchValidator(t *testing.T) *argValidator {
	t.Helper()
	v, err := compileArgValidator(descriptor("text_search",
		api.ArgSpec{Name: "query", Type: "string", Required: true},
		api.ArgSpec{Name: "size", Type: "integer", Default: 10},
		api.ArgSpec{Name: "filters", Schema: map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"type": "string"},
				map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
		}},
	))
	require.NoError(t, err)
	return v
}

func TestArgValidator_FillsDefaults(t *testing.T) {
	v := searchValidator(t)

	args, err := v.apply(map[string]interface{}{"query": "shabbat"})
	require.NoError(t, err)
	assert.Equal(t, "shabbat", args.String("query"))
	assert.Equal(t, 10, args.Int("size", 0))
}

func TestArgValidator_ExplicitNullCountsAsOmitted(t *testing.T) {
	v := searchValidator(t)

	args, err := v.apply(map[string]interface{}{"query": "shabbat", "size": nil})
	require.NoError(t, err)
	assert.Equal(t, 10, args.Int("size", 0))
}

func TestArgValidator_DoesNotModifyInput(t *testing.T) {
	v := searchValidator(t)
	raw := map[string]interface{}{"query": "shabbat"}

	_, err := v.apply(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"query": "shabbat"}, raw)
}

func TestArgValidator_AcceptsTransportNumbers(t *testing.T) {
	v := searchValidator(t)

	// JSON decoders hand integers over as float64.
	args, err := v.apply(map[string]interface{}{"query": "x", "size": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, args.Int("size", 0))
}

func TestArgValidator_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want string
	}{
		{"missing required", map[string]interface{}{}, "query"},
		{"wrong type", map[string]interface{}{"query": 7}, "string"},
		{"fractional integer", map[string]interface{}{"query": "x", "size": 2.5}, "integer"},
		{"bad filter item", map[string]interface{}{"query": "x", "filters": []interface{}{1}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := searchValidator(t)
			_, err := v.apply(tt.raw)
			require.Error(t, err)

			var invalid *api.InvalidArgumentsError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, "text_search", invalid.Tool)
			assert.NotEmpty(t, invalid.Problems)
			assert.Equal(t, api.ErrorKindInvalidArguments, api.KindOf(err))
			if tt.want != "" {
				assert.Contains(t, strings.Join(invalid.Problems, " "), tt.want)
			}
		})
	}
}

func TestArgValidator_AcceptsFilterAsStringOrList(t *testing.T) {
	v := searchValidator(t)

	_, err := v.apply(map[string]interface{}{"query": "x", "filters": "Tanakh"})
	assert.NoError(t, err)
	_, err = v.apply(map[string]interface{}{"query": "x", "filters": []interface{}{"Tanakh", "Talmud"}})
	assert.NoError(t, err)
}

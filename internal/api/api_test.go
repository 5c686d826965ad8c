package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type kindedErr struct{ kind ErrorKind }

func (e kindedErr) Error() string        { return string(e.kind) }
func (e kindedErr) ErrorKind() ErrorKind { return e.kind }

func TestKindOf(t *testing.T) {
	var syntaxErr error
	{
		var v interface{}
		syntaxErr = json.Unmarshal([]byte("{"), &v)
	}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"kinded", kindedErr{ErrorKindUpstreamStatus}, ErrorKindUpstreamStatus},
		{"wrapped kinded", fmt.Errorf("outer: %w", kindedErr{ErrorKindDecode}), ErrorKindDecode},
		{"invalid arguments", &InvalidArgumentsError{Tool: "get_text"}, ErrorKindInvalidArguments},
		{"panic", &PanicError{Tool: "get_text", Value: "boom"}, ErrorKindInternal},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), ErrorKindTimeout},
		{"canceled", context.Canceled, ErrorKindCanceled},
		{"dial failure", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrorKindUpstreamUnreachable},
		{"json syntax", fmt.Errorf("decode: %w", syntaxErr), ErrorKindDecode},
		{"plain", errors.New("something"), ErrorKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("resolve: %w", NewToolNotFoundError("nope"))
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "unknown tool: nope")

	assert.Equal(t, "tool x not found", NewNotFoundError("tool", "x").Error())
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "tools", Reason: `duplicate tool name "get_text"`}
	assert.Equal(t, `configuration error: tools: duplicate tool name "get_text"`, err.Error())
	assert.True(t, IsConfigError(fmt.Errorf("wrap: %w", err)))
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"reference": "Genesis 1:1",
		"size":      float64(5),
		"fraction":  1.5,
		"with":      true,
		"filters":   []interface{}{"Tanakh", "Mishnah"},
		"single":    "Talmud",
		"obj":       map[string]interface{}{"eras": []interface{}{"Rishonim"}},
		"nothing":   nil,
	}

	assert.Equal(t, "Genesis 1:1", args.String("reference"))
	assert.Equal(t, "", args.String("missing"))
	assert.Nil(t, args.StringPtr("nothing"))
	assert.Equal(t, "Genesis 1:1", *args.StringPtr("reference"))

	assert.Equal(t, 5, args.Int("size", 10))
	assert.Equal(t, 10, args.Int("missing", 10))
	assert.Equal(t, 10, args.Int("fraction", 10))
	assert.Nil(t, args.IntPtr("missing"))

	assert.True(t, args.Bool("with", false))
	assert.False(t, args.Bool("missing", false))

	assert.Equal(t, []string{"Tanakh", "Mishnah"}, args.StringSlice("filters"))
	assert.Equal(t, []string{"Talmud"}, args.StringSlice("single"))
	assert.Nil(t, args.StringSlice("missing"))

	assert.NotNil(t, args.Map("obj"))
	assert.Nil(t, args.Map("reference"))
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, KindText, Result{}.Kind())

	r := Binary([]byte{1, 2, 3}, "image/png", map[string]any{"title": "x"})
	assert.Equal(t, KindBinary, r.Kind())
	assert.Equal(t, "image/png", r.MIMEType())
	assert.Len(t, r.Bytes(), 3)
	assert.Equal(t, "binary", r.Kind().String())

	s := Structured([]string{})
	assert.Equal(t, KindStructured, s.Kind())
	assert.Equal(t, []string{}, s.Value())
}

package diff

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/davecgh/go-spew/spew"
)

// Renderer turns a value into the text the edit script is computed over
type Renderer func(ctx context.Context, v any) (string, error)

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

var tokenRegex = regexp.MustCompile(`\w+|\s+|[^\w\s]`)

// tokenCheckInterval is how many tokens are split between context checks
const tokenCheckInterval = 4096

// DefaultRenderer renders scalars with fmt and everything else with go-spew.
// A dump stops once ctx is done.
func DefaultRenderer(ctx context.Context, v any) (out string, err error) {
	if isScalar(v) {
		return fmt.Sprint(v), nil
	}
	w := &cancelWriter{ctx: ctx}
	defer func() {
		if rec := recover(); rec != nil {
			c, ok := rec.(renderCancelled)
			if !ok {
				panic(rec)
			}
			out, err = "", c.err
		}
	}()
	spewConfig.Fdump(w, v)
	return w.buf.String(), nil
}

// renderCancelled unwinds a dump whose context is done
type renderCancelled struct {
	err error
}

// cancelWriter collects a dump. spew ignores write errors, so a done context
// aborts the dump with a renderCancelled panic.
type cancelWriter struct {
	ctx context.Context
	buf strings.Builder
}

func (w *cancelWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		panic(renderCancelled{err: err})
	}
	return w.buf.Write(p)
}

func isScalar(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// tokenize splits scalar renderings per rune and structural renderings per
// word, run of whitespace or punctuation character. Invalid UTF-8 bytes are
// kept as single byte tokens.
func tokenize(ctx context.Context, s string, scalar bool) ([]string, error) {
	var tokens []string
	for pos, n := 0, 0; pos < len(s); n++ {
		if n%tokenCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		size := tokenSize(s[pos:], scalar)
		tokens = append(tokens, s[pos:pos+size])
		pos += size
	}
	return tokens, nil
}

// tokenSize returns the byte length of the token starting s
func tokenSize(s string, scalar bool) int {
	if !scalar {
		if loc := tokenRegex.FindStringIndex(s); loc != nil && loc[0] == 0 && loc[1] > 0 {
			return loc[1]
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return size
}

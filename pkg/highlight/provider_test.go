package highlight_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/treehl/pkg/diff"
	"github.com/walteh/treehl/pkg/grammar"
	"github.com/walteh/treehl/pkg/highlight"
	"github.com/walteh/treehl/pkg/position"
)

type testAsset struct {
	path    string
	content string
}

func newTestProvider(t *testing.T, assets []testAsset, langs ...grammar.LanguageConfig) *highlight.Provider {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for _, a := range assets {
		require.NoError(t, afero.WriteFile(fsys, a.path, []byte(a.content), 0o644))
	}

	cfg := &grammar.Config{Languages: langs}
	require.NoError(t, cfg.Validate())
	return highlight.NewProviderFromConfig(fsys, "/ws", cfg)
}

func TestHighlightGo(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{{"/ws/queries/go.scm", `
(function_declaration name: (identifier) @function)
(comment) @comment
`}},
		grammar.LanguageConfig{Lang: "go", Highlights: "queries/go.scm"},
	)

	text := "// greeting\nfunc hello() {}\n"
	tokens, err := provider.Highlight(ctx, "go", text)
	require.NoError(t, err)

	require.Len(t, tokens, 2)
	assert.Equal(t, "comment", tokens[0].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 0), position.NewPoint(0, 11)), tokens[0].Range)
	assert.Equal(t, "function", tokens[1].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 10)), tokens[1].Range)

	for _, tok := range tokens {
		assert.Equal(t, tok.Range.Start.Line, tok.Range.End.Line, "token %s spans lines", tok.Range)
	}

	// unchanged text and configuration produce an identical stream
	again, err := provider.Highlight(ctx, "go", text)
	require.NoError(t, err)
	require.Empty(t, diff.Diff(tokens, again))
}

func TestHighlightInjectionDirective(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{
			{"/ws/queries/html.scm", `(script_element) @string`},
			{"/ws/queries/html-inj.scm", `((script_element (raw_text) @injection.content) (#set! injection.language "javascript"))`},
			{"/ws/queries/js.scm", `(number) @number`},
		},
		grammar.LanguageConfig{Lang: "html", Highlights: "queries/html.scm", Injections: "queries/html-inj.scm"},
		grammar.LanguageConfig{Lang: "javascript", Highlights: "queries/js.scm", InjectionOnly: true},
	)

	tokens, err := provider.Highlight(ctx, "html", `<script>let x = 42</script>`)
	require.NoError(t, err)

	// the parent token straddles the injected region and is clipped to
	// both sides; the injected grammar owns everything in between
	require.Len(t, tokens, 3)
	assert.Equal(t, "string", tokens[0].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 0), position.NewPoint(0, 8)), tokens[0].Range)
	assert.Equal(t, "number", tokens[1].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 16), position.NewPoint(0, 18)), tokens[1].Range)
	assert.Equal(t, "string", tokens[2].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 18), position.NewPoint(0, 27)), tokens[2].Range)

	// injection-only languages are not offered at the top level
	_, err = provider.Highlight(ctx, "javascript", "42")
	require.Error(t, err)
	require.ErrorIs(t, err, grammar.ErrUnconfiguredLanguage)
}

func TestHighlightInjectionUnconfiguredTarget(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{
			{"/ws/queries/html.scm", `(script_element) @string`},
			{"/ws/queries/html-inj.scm", `((script_element (raw_text) @injection.content) (#set! injection.language "python"))`},
		},
		grammar.LanguageConfig{Lang: "html", Highlights: "queries/html.scm", Injections: "queries/html-inj.scm"},
	)

	// python has no configuration entry: the match contributes no
	// injection and the parent tokens stay intact
	tokens, err := provider.Highlight(ctx, "html", `<script>let x = 42</script>`)
	require.NoError(t, err)

	require.Len(t, tokens, 1)
	assert.Equal(t, "string", tokens[0].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 0), position.NewPoint(0, 27)), tokens[0].Range)
}

func TestHighlightInjectionNameAsLanguage(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{
			{"/ws/queries/html.scm", `(script_element) @string`},
			{"/ws/queries/html-inj.scm", `(script_element (raw_text) @javascript)`},
			{"/ws/queries/js.scm", `(number) @number`},
		},
		grammar.LanguageConfig{Lang: "html", Highlights: "queries/html.scm", Injections: "queries/html-inj.scm"},
		grammar.LanguageConfig{Lang: "javascript", Highlights: "queries/js.scm", InjectionOnly: true},
	)

	tokens, err := provider.Highlight(ctx, "html", `<script>let x = 42</script>`)
	require.NoError(t, err)

	require.Len(t, tokens, 3)
	assert.Equal(t, "number", tokens[1].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 16), position.NewPoint(0, 18)), tokens[1].Range)
}

func TestHighlightInjectionDynamicLanguage(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{
			{"/ws/queries/html.scm", `(attribute_name) @property`},
			{"/ws/queries/html-inj.scm", `(attribute (attribute_name) @injection.language (quoted_attribute_value (attribute_value) @injection.content))`},
			{"/ws/queries/js.scm", `(number) @number`},
		},
		grammar.LanguageConfig{Lang: "html", Highlights: "queries/html.scm", Injections: "queries/html-inj.scm"},
		grammar.LanguageConfig{Lang: "javascript", Highlights: "queries/js.scm", InjectionOnly: true},
	)

	// the attribute name supplies the language at match time
	tokens, err := provider.Highlight(ctx, "html", `<div javascript="42"></div>`)
	require.NoError(t, err)

	require.Len(t, tokens, 2)
	assert.Equal(t, "property", tokens[0].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 5), position.NewPoint(0, 15)), tokens[0].Range)
	assert.Equal(t, "number", tokens[1].Type)
	assert.Equal(t, position.NewRange(position.NewPoint(0, 18), position.NewPoint(0, 20)), tokens[1].Range)
}

func TestHighlightInjectionDepthCeiling(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t,
		[]testAsset{
			{"/ws/queries/js.scm", `(number) @number`},
			{"/ws/queries/js-inj.scm", `((program) @injection.content (#set! injection.language "javascript"))`},
		},
		grammar.LanguageConfig{Lang: "javascript", Highlights: "queries/js.scm", Injections: "queries/js-inj.scm"},
	)

	// a query set that injects a language into itself recurses until
	// the ceiling instead of overflowing the stack
	_, err := provider.Highlight(ctx, "javascript", "42")
	require.Error(t, err)
	require.ErrorIs(t, err, highlight.ErrInjectionDepthExceeded)
}

func TestHighlightUnconfiguredLanguage(t *testing.T) {
	provider := newTestProvider(t, nil)

	_, err := provider.Highlight(context.Background(), "python", "x = 1")
	require.Error(t, err)
	require.ErrorIs(t, err, grammar.ErrUnconfiguredLanguage)
}

func TestHighlightCancellation(t *testing.T) {
	provider := newTestProvider(t,
		[]testAsset{{"/ws/queries/go.scm", `(comment) @comment`}},
		grammar.LanguageConfig{Lang: "go", Highlights: "queries/go.scm"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Highlight(ctx, "go", "// hi\n")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProviderReload(t *testing.T) {
	ctx := context.Background()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/ws/treehl.yaml", []byte(`
languages:
  - lang: go
    highlights: queries/go.scm
`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/ws/queries/go.scm", []byte(`(comment) @comment`), 0o644))

	provider, err := highlight.NewProvider(fsys, "/ws")
	require.NoError(t, err)

	tokens, err := provider.Highlight(ctx, "go", "// hi\n")
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	// a changed query takes effect after reload
	require.NoError(t, afero.WriteFile(fsys, "/ws/queries/go.scm", []byte(`(function_declaration name: (identifier) @function)`), 0o644))
	require.NoError(t, provider.Reload(ctx))

	tokens, err = provider.Highlight(ctx, "go", "// hi\n")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	assert.True(t, provider.Legend().HasType("comment"))
}

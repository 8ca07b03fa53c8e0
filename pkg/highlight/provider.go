// Package highlight runs the document highlighting pipeline: parse,
// match, classify, normalize, resolve injections, merge.
package highlight

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/walteh/treehl/pkg/grammar"
	"github.com/walteh/treehl/pkg/position"
	"github.com/walteh/treehl/pkg/semtok"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// maxInjectionDepth bounds recursive injection resolution so cyclic
// query sets fail predictably instead of exhausting the stack.
const maxInjectionDepth = 32

// ErrInjectionDepthExceeded reports an injection chain deeper than the
// recursion ceiling.
var ErrInjectionDepthExceeded = errors.New("injection depth exceeded")

// Provider answers whole-document highlight requests. It owns the
// language registry and swaps it atomically on reload.
type Provider struct {
	fs         afero.Fs
	root       string
	configPath string

	mu       sync.RWMutex
	registry *grammar.Registry
}

// NewProvider loads the configuration file from the workspace root and
// builds a provider over it.
func NewProvider(fsys afero.Fs, root string) (*Provider, error) {
	configPath := filepath.Join(root, grammar.DefaultConfigName)
	cfg, err := grammar.LoadConfig(fsys, configPath)
	if err != nil {
		return nil, err
	}
	return &Provider{
		fs:         fsys,
		root:       root,
		configPath: configPath,
		registry:   grammar.NewRegistry(fsys, root, cfg),
	}, nil
}

// NewProviderFromConfig builds a provider over an already-validated
// configuration. Reload discards cached bindings but keeps the
// configuration, since there is no file to re-read.
func NewProviderFromConfig(fsys afero.Fs, root string, cfg *grammar.Config) *Provider {
	return &Provider{
		fs:       fsys,
		root:     root,
		registry: grammar.NewRegistry(fsys, root, cfg),
	}
}

// Legend returns the token vocabulary shared with the renderer.
func (p *Provider) Legend() *semtok.Legend {
	return p.currentRegistry().Legend()
}

// Reload makes configuration and asset changes take effect on the next
// highlight request. With a config file present the whole registry is
// rebuilt from a fresh read; otherwise cached bindings are discarded.
func (p *Provider) Reload(ctx context.Context) error {
	if p.configPath == "" {
		p.currentRegistry().Reload()
		return nil
	}

	cfg, err := grammar.LoadConfig(p.fs, p.configPath)
	if err != nil {
		return errors.Errorf("reloading: %w", err)
	}

	p.mu.Lock()
	p.registry = grammar.NewRegistry(p.fs, p.root, cfg)
	p.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("config", p.configPath).Msg("configuration reloaded")
	return nil
}

func (p *Provider) currentRegistry() *grammar.Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registry
}

// Highlight runs the full pipeline for one document and returns the
// final ordered token stream.
func (p *Provider) Highlight(ctx context.Context, languageID, text string) ([]semtok.Token, error) {
	reg := p.currentRegistry()

	binding, err := reg.Resolve(ctx, languageID)
	if err != nil {
		return nil, err
	}
	if binding.InjectionOnly {
		return nil, errors.Errorf("%q is injection-only: %w", languageID, grammar.ErrUnconfiguredLanguage)
	}

	tokens, err := p.run(ctx, reg, binding, text, 0)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("language", languageID).
		Int("tokens", len(tokens)).
		Msg("document highlighted")
	return tokens, nil
}

// run executes one grammar pass: parse the text, collect highlight
// captures, resolve injections, and merge. Injection resolution calls
// back into run with the embedded language, which is how arbitrarily
// nested injections work.
func (p *Provider) run(ctx context.Context, reg *grammar.Registry, binding *grammar.Binding, text string, depth int) ([]semtok.Token, error) {
	if depth > maxInjectionDepth {
		return nil, errors.Errorf("language %q at depth %d: %w", binding.ID, depth, ErrInjectionDepthExceeded)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(binding.Language); err != nil {
		return nil, errors.Errorf("setting language %q: %w", binding.ID, err)
	}

	src := []byte(text)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.Errorf("parsing %q document produced no tree", binding.ID)
	}
	defer tree.Close()

	root := tree.RootNode()
	mapper := position.NewMapper(text)

	// The two match passes share only immutable state (tree, queries,
	// binding cache), so they can proceed concurrently.
	var parentTokens []semtok.Token
	var injections []semtok.Injection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens, err := p.captureTokens(gctx, reg.Legend(), binding, root, src, mapper)
		if err != nil {
			return err
		}
		parentTokens = tokens
		return nil
	})
	if binding.Injections != nil {
		g.Go(func() error {
			resolved, err := p.resolveInjections(gctx, reg, binding, root, src, mapper, depth)
			if err != nil {
				return err
			}
			injections = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return semtok.Merge(parentTokens, injections), nil
}

// captureTokens collects and classifies highlight-query captures, then
// normalizes them into a flat, non-overlapping, single-line stream.
func (p *Provider) captureTokens(ctx context.Context, legend *semtok.Legend, binding *grammar.Binding, root *sitter.Node, src []byte, mapper *position.Mapper) ([]semtok.Token, error) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	names := binding.Highlights.CaptureNames()
	matches := qc.Matches(binding.Highlights, root, src)

	var raw []semtok.Token
	for match := matches.Next(); match != nil; match = matches.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(names) {
				continue
			}
			name := names[capture.Index]

			candidate, ok, err := semtok.Classify(name, binding.Mapping, legend)
			if err != nil {
				// one bad capture must not abort the whole pass
				zerolog.Ctx(ctx).Debug().Err(err).Str("capture", name).Msg("skipping capture")
				continue
			}
			if !ok {
				continue
			}

			tokenRange := nodeRange(&capture.Node, mapper)
			if !tokenRange.IsValid() {
				return nil, errors.Errorf("capture %q at %s: %w", name, tokenRange, semtok.ErrInvalidRange)
			}

			raw = append(raw, semtok.Token{
				Range:     tokenRange,
				Type:      candidate.Type,
				Modifiers: candidate.Modifiers,
			})
		}
	}

	return semtok.Normalize(raw)
}

func nodeRange(node *sitter.Node, mapper *position.Mapper) position.Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return position.NewRange(
		mapper.PointAt(int(start.Row), int(start.Column)),
		mapper.PointAt(int(end.Row), int(end.Column)),
	)
}

package grammar

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/walteh/treehl/pkg/semtok"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrLanguageLoad reports a missing or broken grammar or query
	// asset. Load failures are not cached; a later resolve retries.
	ErrLanguageLoad = errors.New("language load failed")

	// ErrUnconfiguredLanguage reports a language identifier with no
	// configuration entry.
	ErrUnconfiguredLanguage = errors.New("language not configured")

	// ErrPathResolution reports a relative asset path with no
	// workspace root to resolve it against.
	ErrPathResolution = errors.New("no workspace root to resolve relative path")
)

// Binding is the loaded engine state for one language: its grammar,
// compiled queries, and capture type mapping. Bindings are immutable
// after construction and owned exclusively by the Registry.
type Binding struct {
	ID            string
	Language      *sitter.Language
	Highlights    *sitter.Query
	Injections    *sitter.Query
	Mapping       semtok.TypeMapping
	InjectionOnly bool
}

func (b *Binding) close() {
	if b.Highlights != nil {
		b.Highlights.Close()
	}
	if b.Injections != nil {
		b.Injections.Close()
	}
}

// Registry lazily loads and caches language bindings by identifier.
// Construction happens at most once per identifier even under
// concurrent resolution; Reload atomically discards every binding.
type Registry struct {
	fs     afero.Fs
	root   string
	legend *semtok.Legend

	configs map[string]LanguageConfig

	mu       sync.RWMutex
	gen      uint64
	bindings map[string]*Binding

	group singleflight.Group
}

// NewRegistry builds a registry over a validated configuration. The
// workspace root may be empty, in which case relative asset paths fail
// with ErrPathResolution at load time.
func NewRegistry(fsys afero.Fs, root string, cfg *Config) *Registry {
	configs := make(map[string]LanguageConfig, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		configs[lang.Lang] = lang
	}
	return &Registry{
		fs:       fsys,
		root:     root,
		legend:   cfg.BuildLegend(),
		configs:  configs,
		bindings: make(map[string]*Binding),
	}
}

// Legend returns the token vocabulary shared with the renderer.
func (r *Registry) Legend() *semtok.Legend {
	return r.legend
}

// IsConfigured reports whether a language identifier has a
// configuration entry.
func (r *Registry) IsConfigured(id string) bool {
	_, ok := r.configs[id]
	return ok
}

// Resolve returns the binding for a language identifier, loading and
// caching it on first use. Concurrent resolutions of the same
// identifier share a single load.
func (r *Registry) Resolve(ctx context.Context, id string) (*Binding, error) {
	r.mu.RLock()
	binding, ok := r.bindings[id]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		return binding, nil
	}

	cfg, ok := r.configs[id]
	if !ok {
		return nil, errors.Errorf("resolving %q: %w", id, ErrUnconfiguredLanguage)
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.bindings[id]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(ctx, cfg)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			// a cancelled load is discarded entirely, never cached
			loaded.close()
			return nil, err
		}

		r.mu.Lock()
		if r.gen != gen {
			// reloaded while loading: hand the binding to this caller
			// but do not poison the fresh cache with it
			r.mu.Unlock()
			return loaded, nil
		}
		r.bindings[id] = loaded
		r.mu.Unlock()

		zerolog.Ctx(ctx).Debug().Str("language", id).Msg("language binding loaded")
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Binding), nil
}

// Reload atomically discards all cached bindings. The next resolve of
// each identifier loads fresh assets.
func (r *Registry) Reload() {
	r.mu.Lock()
	r.gen++
	r.bindings = make(map[string]*Binding)
	r.mu.Unlock()
}

func (r *Registry) load(ctx context.Context, cfg LanguageConfig) (*Binding, error) {
	lang, ok := lookupGrammar(cfg.Lang)
	if !ok {
		return nil, errors.Errorf("no built-in grammar for %q: %w", cfg.Lang, ErrLanguageLoad)
	}

	if cfg.Parser != "" {
		parserPath, err := r.resolvePath(cfg.Parser)
		if err != nil {
			return nil, err
		}
		if _, err := r.fs.Stat(parserPath); err != nil {
			return nil, errors.Errorf("grammar artifact %q for %q: %w", parserPath, cfg.Lang, ErrLanguageLoad)
		}
	}

	highlights, err := r.compileQuery(lang, cfg.Lang, cfg.Highlights)
	if err != nil {
		return nil, err
	}

	var injections *sitter.Query
	if cfg.Injections != "" {
		injections, err = r.compileQuery(lang, cfg.Lang, cfg.Injections)
		if err != nil {
			highlights.Close()
			return nil, err
		}
	}

	return &Binding{
		ID:            cfg.Lang,
		Language:      lang,
		Highlights:    highlights,
		Injections:    injections,
		Mapping:       cfg.TypeMappings,
		InjectionOnly: cfg.InjectionOnly,
	}, nil
}

func (r *Registry) compileQuery(lang *sitter.Language, id, path string) (*sitter.Query, error) {
	resolved, err := r.resolvePath(path)
	if err != nil {
		return nil, err
	}

	src, err := afero.ReadFile(r.fs, resolved)
	if err != nil {
		return nil, errors.Errorf("reading query %q for %q: %w", resolved, id, ErrLanguageLoad)
	}

	query, qerr := sitter.NewQuery(lang, string(src))
	if qerr != nil {
		return nil, errors.Errorf("compiling query %q for %q: %v: %w", resolved, id, qerr, ErrLanguageLoad)
	}
	return query, nil
}

func (r *Registry) resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	if r.root == "" {
		return "", errors.Errorf("resolving %q: %w", path, ErrPathResolution)
	}
	return filepath.Join(r.root, path), nil
}

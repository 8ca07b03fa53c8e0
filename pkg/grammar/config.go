package grammar

import (
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/walteh/treehl/pkg/semtok"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the configuration file looked up at the
// workspace root.
const DefaultConfigName = "treehl.yaml"

// LanguageConfig describes one highlightable language.
type LanguageConfig struct {
	// Lang is the language identifier, matched against the document or
	// injected content language
	Lang string `yaml:"lang"`

	// Parser is the grammar artifact location. Grammars are statically
	// linked in this implementation, so the path is resolved and
	// checked but its content is not read.
	Parser string `yaml:"parser,omitempty"`

	// Highlights is the highlight-query source location
	Highlights string `yaml:"highlights"`

	// Injections is the optional injection-query source location
	Injections string `yaml:"injections,omitempty"`

	// InjectionOnly marks a language that is never offered as a
	// top-level document highlighter, only reachable via injection
	InjectionOnly bool `yaml:"injectionOnly,omitempty"`

	// TypeMappings remaps capture identifiers for this language
	TypeMappings semtok.TypeMapping `yaml:"semanticTokenTypeMappings,omitempty"`
}

// LegendConfig overrides the token type and modifier vocabularies.
// Both default to the standard LSP legend when empty.
type LegendConfig struct {
	TokenTypes     []string `yaml:"tokenTypes,omitempty"`
	TokenModifiers []string `yaml:"tokenModifiers,omitempty"`
}

// Config is the full highlighter configuration.
type Config struct {
	Legend    LegendConfig     `yaml:"legend,omitempty"`
	Languages []LanguageConfig `yaml:"languages"`
}

// LoadConfig reads and validates a configuration file.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Errorf("reading config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Errorf("parsing config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %q: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks every language entry, accumulating all problems
// rather than stopping at the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	seen := make(map[string]bool, len(c.Languages))
	for i, lang := range c.Languages {
		if lang.Lang == "" {
			result = multierror.Append(result, errors.Errorf("languages[%d]: missing lang", i))
			continue
		}
		if seen[lang.Lang] {
			result = multierror.Append(result, errors.Errorf("languages[%d]: duplicate lang %q", i, lang.Lang))
		}
		seen[lang.Lang] = true
		if lang.Highlights == "" {
			result = multierror.Append(result, errors.Errorf("languages[%d] (%s): missing highlights", i, lang.Lang))
		}
	}

	return result.ErrorOrNil()
}

// BuildLegend constructs the effective legend for this configuration.
func (c *Config) BuildLegend() *semtok.Legend {
	if len(c.Legend.TokenTypes) == 0 && len(c.Legend.TokenModifiers) == 0 {
		return semtok.DefaultLegend()
	}

	defaults := semtok.DefaultLegend()
	tokenTypes := c.Legend.TokenTypes
	if len(tokenTypes) == 0 {
		tokenTypes = defaults.TokenTypes
	}
	tokenModifiers := c.Legend.TokenModifiers
	if len(tokenModifiers) == 0 {
		tokenModifiers = defaults.TokenModifiers
	}
	return semtok.NewLegend(tokenTypes, tokenModifiers)
}

package highlight_cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/treehl/pkg/debug"
	"github.com/walteh/treehl/pkg/highlight"
	"github.com/walteh/treehl/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	workspace string
	lang      string
	encoded   bool
	debug     bool
}

func NewHighlightCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "highlight <file>",
		Short: "emit semantic tokens for a single file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.workspace, "workspace", ".", "workspace root containing treehl.yaml")
	cmd.Flags().StringVar(&me.lang, "lang", "", "language id (default inferred from the file extension)")
	cmd.Flags().BoolVar(&me.encoded, "encoded", false, "emit the LSP integer encoding instead of readable tokens")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

// languageByExtension covers the statically linked grammars.
var languageByExtension = map[string]string{
	".sh":   "bash",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".css":  "css",
	".go":   "go",
	".html": "html",
	".java": "java",
	".js":   "javascript",
	".json": "json",
	".py":   "python",
	".rb":   "ruby",
	".rs":   "rust",
	".ts":   "typescript",
	".tsx":  "tsx",
}

type tokenRow struct {
	Line      int      `json:"line"`
	StartChar int      `json:"startChar"`
	EndChar   int      `json:"endChar"`
	Type      string   `json:"type"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (me *Handler) Run(ctx context.Context, path string) error {
	level := zerolog.WarnLevel
	if me.debug {
		level = zerolog.DebugLevel
	}
	logger := debug.NewLogger(os.Stderr, level, true)
	ctx = logger.WithContext(ctx)

	lang := me.lang
	if lang == "" {
		lang = languageByExtension[strings.ToLower(filepath.Ext(path))]
		if lang == "" {
			return errors.Errorf("cannot infer language for %q, pass --lang", path)
		}
	}

	fsys := afero.NewOsFs()

	workspace, err := filepath.Abs(me.workspace)
	if err != nil {
		return errors.Errorf("resolving workspace root: %w", err)
	}

	provider, err := highlight.NewProvider(fsys, workspace)
	if err != nil {
		return errors.Errorf("loading workspace configuration: %w", err)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return errors.Errorf("reading %q: %w", path, err)
	}

	tokens, err := provider.Highlight(ctx, lang, string(data))
	if err != nil {
		return errors.Errorf("highlighting %q: %w", path, err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if me.encoded {
		return out.Encode(semtok.EncodeLSP(tokens, provider.Legend()))
	}

	rows := make([]tokenRow, 0, len(tokens))
	for _, tok := range tokens {
		rows = append(rows, tokenRow{
			Line:      tok.Range.Start.Line,
			StartChar: tok.Range.Start.Character,
			EndChar:   tok.Range.End.Character,
			Type:      tok.Type,
			Modifiers: tok.Modifiers,
		})
	}
	return out.Encode(rows)
}

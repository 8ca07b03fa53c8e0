package highlight

import (
	"context"

	"github.com/rs/zerolog"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/walteh/treehl/pkg/grammar"
	"github.com/walteh/treehl/pkg/position"
	"github.com/walteh/treehl/pkg/semtok"
	"golang.org/x/sync/errgroup"
)

// injectionLanguageKey doubles as the query property key set by
// `(#set! injection.language "x")` and the capture name the dynamic
// discovery rule pairs with an injection.content capture.
const (
	injectionLanguageKey = "injection.language"
	captureContent       = "injection.content"
)

type pendingInjection struct {
	language string
	node     sitter.Node
}

// resolveInjections walks injection-query matches, discovers each
// match's target language and content node, and recursively highlights
// the embedded text. Sibling injections resolve concurrently; the
// returned slice preserves discovery order.
//
// A match that names no known, configured language contributes no
// injection. So does a configured language whose assets fail to load:
// an embedded region degrades to the parent's own highlighting rather
// than aborting the request.
func (p *Provider) resolveInjections(ctx context.Context, reg *grammar.Registry, binding *grammar.Binding, root *sitter.Node, src []byte, mapper *position.Mapper, depth int) ([]semtok.Injection, error) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	names := binding.Injections.CaptureNames()
	matches := qc.Matches(binding.Injections, root, src)

	var pending []pendingInjection
	for match := matches.Next(); match != nil; match = matches.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		language, node, ok := discoverInjection(reg, binding.Injections, names, match, src)
		if !ok {
			continue
		}
		pending = append(pending, pendingInjection{language: language, node: node})
	}

	resolved := make([]semtok.Injection, len(pending))
	produced := make([]bool, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	for i, inj := range pending {
		g.Go(func() error {
			target, err := reg.Resolve(gctx, inj.language)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zerolog.Ctx(gctx).Warn().Err(err).
					Str("language", inj.language).
					Msg("injection target failed to load")
				return nil
			}

			content := inj.node.Utf8Text(src)
			tokens, err := p.run(gctx, reg, target, content, depth+1)
			if err != nil {
				return err
			}

			start := inj.node.StartPosition()
			origin := mapper.PointAt(int(start.Row), int(start.Column))
			resolved[i] = semtok.Injection{
				Range:  nodeRange(&inj.node, mapper),
				Tokens: shiftTokens(tokens, origin),
			}
			produced[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]semtok.Injection, 0, len(resolved))
	for i := range resolved {
		if produced[i] {
			out = append(out, resolved[i])
		}
	}
	return out, nil
}

// discoverInjection determines a match's target language and content
// node. The three rules apply in strict precedence:
//
//  1. an `injection.language` property set on the pattern, with the
//     match's sole capture as content
//  2. an `injection.language` capture naming the language at match
//     time, paired with an `injection.content` capture
//  3. a capture whose own name is a configured language identifier,
//     serving as both selector and content
func discoverInjection(reg *grammar.Registry, query *sitter.Query, names []string, match *sitter.QueryMatch, src []byte) (string, sitter.Node, bool) {
	for _, prop := range query.PropertySettings(uint(match.PatternIndex)) {
		if prop.Key != injectionLanguageKey || prop.Value == nil {
			continue
		}
		if len(match.Captures) == 0 {
			return "", sitter.Node{}, false
		}
		return checkConfigured(reg, *prop.Value, match.Captures[0].Node)
	}

	var languageNode, contentNode *sitter.Node
	for i := range match.Captures {
		if int(match.Captures[i].Index) >= len(names) {
			continue
		}
		switch names[match.Captures[i].Index] {
		case injectionLanguageKey:
			languageNode = &match.Captures[i].Node
		case captureContent:
			contentNode = &match.Captures[i].Node
		}
	}
	if languageNode != nil && contentNode != nil {
		return checkConfigured(reg, languageNode.Utf8Text(src), *contentNode)
	}

	for i := range match.Captures {
		if int(match.Captures[i].Index) >= len(names) {
			continue
		}
		if name := names[match.Captures[i].Index]; reg.IsConfigured(name) {
			return name, match.Captures[i].Node, true
		}
	}

	return "", sitter.Node{}, false
}

func checkConfigured(reg *grammar.Registry, language string, node sitter.Node) (string, sitter.Node, bool) {
	if !reg.IsConfigured(language) {
		return "", sitter.Node{}, false
	}
	return language, node, true
}

// shiftTokens translates tokens computed against an extracted
// substring into parent-document coordinates. Only tokens on the
// substring's first line need their character offset shifted.
func shiftTokens(tokens []semtok.Token, origin position.Point) []semtok.Token {
	out := make([]semtok.Token, len(tokens))
	for i, t := range tokens {
		start := t.Range.Start
		end := t.Range.End
		if start.Line == 0 {
			start.Character += origin.Character
		}
		if end.Line == 0 {
			end.Character += origin.Character
		}
		start.Line += origin.Line
		end.Line += origin.Line
		out[i] = semtok.Token{
			Range:     position.NewRange(start, end),
			Type:      t.Type,
			Modifiers: t.Modifiers,
		}
	}
	return out
}

package semtok

import "sort"

// Merge splices injection token streams into the parent stream.
//
// For every injection that resolved to at least one token, parent
// tokens fully inside the injection's range are dropped (the injected
// grammar owns that region), and parent tokens partially overlapping
// it are clipped to the non-overlapping remainder. Injections that
// resolved to nothing leave the parent tokens untouched, so an empty
// embedded region does not blank out the base highlighting. The final
// stream is stably sorted by (line, character), giving consumers a
// total order.
func Merge(parent []Token, injections []Injection) []Token {
	remaining := parent
	for _, inj := range injections {
		if len(inj.Tokens) == 0 {
			continue
		}

		next := make([]Token, 0, len(remaining))
		for _, t := range remaining {
			if !t.Range.Intersects(inj.Range) {
				next = append(next, t)
				continue
			}
			if before, ok := t.Range.CutBefore(inj.Range); ok {
				next = append(next, fragment(t, before.Start, before.End))
			}
			if after, ok := t.Range.CutAfter(inj.Range); ok {
				next = append(next, fragment(t, after.Start, after.End))
			}
		}
		remaining = next
	}

	out := make([]Token, 0, len(remaining)+totalInjected(injections))
	out = append(out, remaining...)
	for _, inj := range injections {
		out = append(out, inj.Tokens...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

func totalInjected(injections []Injection) int {
	n := 0
	for _, inj := range injections {
		n += len(inj.Tokens)
	}
	return n
}

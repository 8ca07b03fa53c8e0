package semtok

// EncodeLSP converts an ordered token stream into the LSP relative
// encoding: one (deltaLine, deltaStart, length, typeIndex,
// modifierMask) quintuple per token, addressed against the legend.
// Tokens must already be sorted and single-line, as produced by Merge.
// Tokens whose type is missing from the legend are skipped.
func EncodeLSP(tokens []Token, legend *Legend) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)

	prevLine := 0
	prevStart := 0
	for _, t := range tokens {
		typeIndex, ok := legend.TypeIndex(t.Type)
		if !ok {
			continue
		}

		line := t.Range.Start.Line
		start := t.Range.Start.Character
		length := t.Range.End.Character - start
		if length <= 0 {
			continue
		}

		deltaLine := line - prevLine
		deltaStart := start
		if deltaLine == 0 {
			deltaStart = start - prevStart
		}

		data = append(data,
			uint32(deltaLine),
			uint32(deltaStart),
			uint32(length),
			uint32(typeIndex),
			legend.ModifierMask(t.Modifiers),
		)

		prevLine = line
		prevStart = start
	}
	return data
}

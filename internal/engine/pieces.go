package engine

import (
	"strings"

	"nllbd/internal/registry"
)

// spaceMarker is the SentencePiece word-boundary symbol.
const spaceMarker = "▁"

var specialTokens = map[string]struct{}{
	"<s>": {}, "</s>": {}, "<pad>": {}, "<unk>": {}, "<mask>": {},
}

// IsSpecial reports whether tok is a control or language token.
func IsSpecial(tok string) bool {
	if _, ok := specialTokens[tok]; ok {
		return true
	}
	return registry.IsFlores(tok)
}

// JoinPieces detokenizes SentencePiece pieces, skipping special tokens.
func JoinPieces(pieces []string) string {
	var b strings.Builder
	for _, p := range pieces {
		if IsSpecial(p) {
			continue
		}
		b.WriteString(p)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), spaceMarker, " "))
}

// truncate keeps at most max tokens while preserving the trailing EOS.
func truncate(toks []string, max int) []string {
	if max <= 0 || len(toks) <= max {
		return toks
	}
	out := make([]string, max)
	copy(out, toks[:max-1])
	out[max-1] = EOS
	return out
}

// stripPrefix drops the target-language steering token from a hypothesis.
func stripPrefix(hyp []string, lang string) []string {
	if len(hyp) > 0 && hyp[0] == lang {
		return hyp[1:]
	}
	return hyp
}

package stream

import "strings"

// FormatId is an ordered, non-empty sequence of atomic format tokens
// (opaque strings chosen by the extractor, e.g. "137", "251"). Order is
// meaningful: the first token is the video track, later tokens are
// audio/subtitle tracks. The zero value is the empty FormatId.
type FormatId struct {
	tokens []string
}

// ParseFormatId splits s on "+", discarding empty tokens. No sorting is
// applied — the caller's video-first ordering is preserved.
func ParseFormatId(s string) FormatId {
	parts := strings.Split(s, "+")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return FormatId{tokens: tokens}
}

// String joins the tokens with "+". The result never contains whitespace
// and uses "+" only as a separator.
func (f FormatId) String() string {
	return strings.Join(f.tokens, "+")
}

// IsEmpty reports whether f has no tokens.
func (f FormatId) IsEmpty() bool {
	return len(f.tokens) == 0
}

// CompoundIds returns the atomic single-token FormatIds that make up f,
// in order.
func (f FormatId) CompoundIds() []FormatId {
	out := make([]FormatId, len(f.tokens))
	for i, t := range f.tokens {
		out[i] = FormatId{tokens: []string{t}}
	}
	return out
}

// Equal reports whether f and other have the same string form.
func (f FormatId) Equal(other FormatId) bool {
	return f.String() == other.String()
}

// Less orders FormatId values lexicographically by string form, for use
// in sorted output.
func (f FormatId) Less(other FormatId) bool {
	return f.String() < other.String()
}

package stream

import (
	"regexp"
	"strconv"
	"strings"
)

// percentRe strips any leading non-digit run and captures a decimal
// number, tolerating comma-grouped and fractional forms the extractor
// emits (e.g. "45.2%", "1,234.5%").
var percentRe = regexp.MustCompile(`[-+]?[\d,]*\.?\d+`)

// parsePercentDecimal parses a token like "45.2%" into 45.2. It returns
// -1 if no decimal number can be found. Comma thousands-separators are
// stripped before parsing; only a single '.' decimal point is accepted.
func parsePercentDecimal(token string) float64 {
	match := percentRe.FindString(token)
	if match == "" {
		return -1
	}
	match = strings.ReplaceAll(match, ",", "")
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return -1
	}
	return v
}

// byteSizeRe captures a decimal number followed by an optional SI-like
// binary suffix (Ki, Mi, Gi, Ti) and a trailing "B" or "iB".
var byteSizeRe = regexp.MustCompile(`(?i)^([\d,]*\.?\d+)\s*(Ki|Mi|Gi|Ti)?B$`)

var byteSizeMultipliers = map[string]float64{
	"":   1,
	"ki": 1024,
	"mi": 1024 * 1024,
	"gi": 1024 * 1024 * 1024,
	"ti": 1024 * 1024 * 1024 * 1024,
}

// parseByteSize parses a token like "4.12MiB" into a byte count. It
// returns -1 if the token doesn't match the expected shape.
func parseByteSize(token string) int64 {
	m := byteSizeRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return -1
	}
	numStr := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return -1
	}
	mult, ok := byteSizeMultipliers[strings.ToLower(m[2])]
	if !ok {
		return -1
	}
	return int64(v * mult)
}

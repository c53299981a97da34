package stream

import "strings"

// MatchesHost reports whether host (dot-separated, e.g. "www.absnews.com")
// is claimed by the pattern regexHost, whose mandatory tokens are
// separated by "." or ":" (e.g. "absnews:videos"). The host matches iff
// every mandatory token appears, case-insensitively, as some
// dot-component of host. Token order in regexHost has no effect.
func MatchesHost(host, regexHost string) bool {
	domains := splitNonEmpty(host, ".")
	mandatory := splitNonEmpty(regexHost, ".", ":")

	for _, m := range mandatory {
		found := false
		for _, d := range domains {
			if strings.EqualFold(d, m) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesAnyHost reports whether host matches any pattern in regexHosts.
func MatchesAnyHost(host string, regexHosts []string) bool {
	for _, pattern := range regexHosts {
		if MatchesHost(host, pattern) {
			return true
		}
	}
	return false
}

func splitNonEmpty(s string, seps ...string) []string {
	s = replaceAny(s, seps, ".")
	var out []string
	for _, part := range strings.Split(s, ".") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func replaceAny(s string, seps []string, to string) string {
	for _, sep := range seps {
		if sep != to {
			s = strings.ReplaceAll(s, sep, to)
		}
	}
	return s
}

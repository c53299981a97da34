package stream

import "testing"

func TestMatchesHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"www.absnews.com", "absnews.com", true},
		{"videos.absnews.com", "absnews:videos", true},
		{"www.absnews.com", "absnews:videos", false},
		{"videos.absnews.com", "absnews.com:videos", true},
		{"WWW.ABSNEWS.COM", "absnews.com", true},
	}
	for _, tt := range tests {
		if got := MatchesHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("MatchesHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestMatchesHostTokenOrderSymmetry(t *testing.T) {
	host := "videos.absnews.com"
	a := MatchesHost(host, "absnews:videos")
	b := MatchesHost(host, "videos:absnews")
	if a != b {
		t.Errorf("token order affected result: %v vs %v", a, b)
	}
}

func TestMatchesAnyHost(t *testing.T) {
	patterns := []string{"example.com", "absnews:videos"}
	if !MatchesAnyHost("videos.absnews.com", patterns) {
		t.Error("expected a match")
	}
	if MatchesAnyHost("other.com", patterns) {
		t.Error("expected no match")
	}
}

package stream

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetStreamId(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantId     string
		wantReason string
		wantOk     bool
	}{
		{"plain", "ERROR: abc123: Video unavailable", "abc123", "Video unavailable", true},
		{"colored", "\x1b[0;31mERROR:\x1b[0m abc123: Private video", "abc123", "Private video", true},
		{"no prefix", "WARNING: abc123: something", "", "", false},
		{"no colon", "ERROR: not a valid line", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, reason, ok := getStreamId(tt.line)
			if ok != tt.wantOk || id != tt.wantId || reason != tt.wantReason {
				t.Errorf("getStreamId(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, id, reason, ok, tt.wantId, tt.wantReason, tt.wantOk)
			}
		})
	}
}

func TestParseDumpMapWithStderrFallback(t *testing.T) {
	stdout := []string{
		`{"id":"abc","title":"Clip A","ext":"mp4","format_id":"22","webpage_url":"https://x/abc","formats":[{"format_id":"22","ext":"mp4","vcodec":"avc1","acodec":"mp4a"}]}`,
	}
	stderr := []string{
		"ERROR: def: Video unavailable",
	}
	got := parseDumpMap(stdout, stderr)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(got), got)
	}
	if got["abc"].DefaultTitle != "Clip A" {
		t.Errorf("expected Clip A, got %q", got["abc"].DefaultTitle)
	}
	if got["def"].Error != UnavailableError {
		t.Errorf("expected def to be marked unavailable, got %+v", got["def"])
	}
}

func TestParseDumpMapMalformedLineKeepsErrorEntry(t *testing.T) {
	got := parseDumpMap([]string{"not json", `{"id":""}`}, nil)
	// The empty-id line decodes fine but carries no id, so it's skipped.
	// The malformed line can't be decoded at all, so it's kept under a
	// synthesized key with JsonFormatError rather than dropped.
	if len(got) != 1 {
		t.Fatalf("expected 1 entry (malformed line kept, empty-id line skipped), got %d: %+v", len(got), got)
	}
	for _, info := range got {
		if info.Error != JsonFormatError {
			t.Errorf("expected JsonFormatError, got %+v", info)
		}
	}
}

func TestParseDumpMapMalformedLineRecoversId(t *testing.T) {
	got := parseDumpMap([]string{`{"id":"abc","formats":"not an array"}`}, nil)
	info, ok := got["abc"]
	if !ok {
		t.Fatalf("expected recovered id %q in result: %+v", "abc", got)
	}
	if info.Error != JsonFormatError {
		t.Errorf("expected JsonFormatError, got %+v", info)
	}
}

func TestParseFlatList(t *testing.T) {
	stdout := []string{
		`{"_type":"url","id":"a1","ie_key":"Youtube","title":"First","url":"https://x/a1"}`,
		`{"_type":"url","id":"a2","ie_key":"Youtube","title":"Second","url":"https://x/a2"}`,
		"not json",
	}
	got := parseFlatList(stdout)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Id != "a1" || got[1].Id != "a2" {
		t.Errorf("expected order preserved, got %+v", got)
	}
}

// writeFakeExtractor writes an executable shell script that behaves
// differently depending on whether it was invoked with --flat-playlist,
// simulating the dump and flat-playlist children of a real probe.
func writeFakeExtractor(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-ytdl")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake extractor: %v", err)
	}
	return path
}

func TestMetadataCollectorRunAsyncReconciles(t *testing.T) {
	script := `
case "$*" in
  *--flat-playlist*)
    echo '{"_type":"url","id":"v1","ie_key":"Fake","title":"Video One","url":"https://example.com/v1"}'
    ;;
  *)
    echo '{"id":"v1","title":"Video One","ext":"mp4","format_id":"22","webpage_url":"https://example.com/v1","formats":[{"format_id":"22","ext":"mp4","vcodec":"avc1","acodec":"mp4a"}]}'
    ;;
esac
exit 0
`
	path := writeFakeExtractor(t, script)
	c := NewMetadataCollector(Config{ExecutablePath: path})
	c.RunAsync("https://example.com/v1")

	select {
	case ev := <-c.Events():
		if ev.Err != "" {
			t.Fatalf("unexpected error: %s", ev.Err)
		}
		if len(ev.Collected) != 1 || ev.Collected[0].Id != "v1" {
			t.Fatalf("unexpected collected result: %+v", ev.Collected)
		}
		if ev.Collected[0].PlaylistIndex != "1" {
			t.Errorf("expected playlist index 1, got %q", ev.Collected[0].PlaylistIndex)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for collector result")
	}
}

func TestMetadataCollectorCrashedProcess(t *testing.T) {
	script := `
case "$*" in
  *--flat-playlist*)
    sleep 0.1
    exit 0
    ;;
  *)
    kill -9 $$
    ;;
esac
`
	path := writeFakeExtractor(t, script)
	c := NewMetadataCollector(Config{ExecutablePath: path})
	c.RunAsync("https://example.com/v1")

	select {
	case ev := <-c.Events():
		if ev.Err != "The process crashed." {
			t.Fatalf("expected crash error, got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for collector result")
	}
}

package stream

import (
	"testing"
	"time"
)

func TestTrimAnyPrefix(t *testing.T) {
	msg, ok := trimAnyPrefix("ERROR: boom", errorPrefixColored, errorPrefixPlain)
	if !ok || msg != "boom" {
		t.Fatalf("got (%q, %v), want (boom, true)", msg, ok)
	}
	msg, ok = trimAnyPrefix("\x1b[0;31mERROR:\x1b[0m boom", errorPrefixColored, errorPrefixPlain)
	if !ok || msg != "boom" {
		t.Fatalf("got (%q, %v), want (boom, true)", msg, ok)
	}
	if _, ok := trimAnyPrefix("info: fine", errorPrefixColored, errorPrefixPlain); ok {
		t.Fatal("expected no match")
	}
}

func newTestDriver(t *testing.T, script, url string, formatId FormatId) *DownloadDriver {
	t.Helper()
	path := writeFakeExtractor(t, script)
	d := NewDownloadDriver(Config{ExecutablePath: path})
	d.SetUrl(url)
	d.SetLocalFullOutputPath("%(title)s.%(ext)s")
	d.SetSelectedFormatId(formatId)
	d.Start()
	return d
}

func TestDownloadDriverSingleSectionProgress(t *testing.T) {
	script := `
echo '[download] Destination: clip.mp4'
echo '[download]  50.0% of 10.00MiB at 1.00MiB/s ETA 00:05'
echo '[download] 100.0% of 10.00MiB at 1.00MiB/s ETA 00:00'
exit 0
`
	d := newTestDriver(t, script, "https://example.com/v1", ParseFormatId("22"))

	var sawMeta, sawHalf, sawFull, sawFinished bool
	deadline := time.After(5 * time.Second)
	for !sawFinished {
		select {
		case ev := <-d.Events():
			switch {
			case ev.MetadataChanged != nil:
				if ev.MetadataChanged.Filename == "clip.mp4" {
					sawMeta = true
				}
			case ev.Progress != nil:
				if ev.Progress.BytesTotal == 10*1024*1024 && ev.Progress.BytesReceived == 5*1024*1024 {
					sawHalf = true
				}
				if ev.Progress.BytesReceived == ev.Progress.BytesTotal && ev.Progress.BytesTotal == 10*1024*1024 {
					sawFull = true
				}
			case ev.Finished != nil:
				sawFinished = true
			case ev.Err != "":
				t.Fatalf("unexpected error: %s", ev.Err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for driver events")
		}
	}
	if !sawMeta || !sawHalf || !sawFull {
		t.Fatalf("missing expected events: meta=%v half=%v full=%v", sawMeta, sawHalf, sawFull)
	}
}

// TestDownloadDriverMultiSectionCumulativeBytes walks the worked example:
// a first section declared at 8.00MiB closes out (its full declared size
// is folded in, regardless of what percentage was last reported for it),
// then a second section reports 50% of 2.00MiB.
func TestDownloadDriverMultiSectionCumulativeBytes(t *testing.T) {
	script := `
echo '[download] Destination: clip.f137.mp4'
echo '[download] 100.0% of 8.00MiB at 1.00MiB/s ETA 00:00'
echo '[download] Destination: clip.f251.webm'
echo '[download]  50.0% of 2.00MiB at 1.00MiB/s ETA 00:01'
exit 0
`
	d := newTestDriver(t, script, "https://example.com/v1", ParseFormatId("137+251"))

	var progressEvents []ProgressEvent
	deadline := time.After(5 * time.Second)
	done := false
	for !done {
		select {
		case ev := <-d.Events():
			if ev.Progress != nil {
				progressEvents = append(progressEvents, *ev.Progress)
			}
			if ev.Finished != nil {
				done = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for driver events")
		}
	}
	if len(progressEvents) == 0 {
		t.Fatal("expected at least one progress event")
	}
	for i := 1; i < len(progressEvents); i++ {
		if progressEvents[i].BytesReceived < progressEvents[i-1].BytesReceived {
			t.Fatalf("bytesReceived regressed at event %d: %d -> %d", i, progressEvents[i-1].BytesReceived, progressEvents[i].BytesReceived)
		}
	}
	wantReceived := int64(8*1024*1024) + int64(1*1024*1024)
	last := progressEvents[len(progressEvents)-1]
	if last.BytesReceived != wantReceived {
		t.Errorf("expected cumulative bytesReceived %d, got %d", wantReceived, last.BytesReceived)
	}
}

func TestDownloadDriverMergeWarningSetsExtension(t *testing.T) {
	script := `
echo '[download] Destination: clip.f137.mp4'
echo 'WARNING: Requested formats are incompatible for merge and will be merged into mkv.' 1>&2
exit 0
`
	d := newTestDriver(t, script, "https://example.com/v1", ParseFormatId("137+251"))

	var sawMkv bool
	deadline := time.After(5 * time.Second)
	done := false
	for !done {
		select {
		case ev := <-d.Events():
			if ev.MetadataChanged != nil && ev.MetadataChanged.FileExtension == "mkv" {
				sawMkv = true
			}
			if ev.Finished != nil {
				done = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for driver events")
		}
	}
	if !sawMkv {
		t.Fatal("expected an mkv extension change event")
	}
}

func TestDownloadDriverErrorLine(t *testing.T) {
	script := `echo 'ERROR: Unsupported URL' 1>&2; exit 1`
	d := newTestDriver(t, script, "https://example.com/bad", ParseFormatId("22"))

	var sawErr bool
	deadline := time.After(5 * time.Second)
	for !sawErr {
		select {
		case ev := <-d.Events():
			if ev.Err == "Unsupported URL" {
				sawErr = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for error event")
		}
	}
}

func TestDownloadDriverStartNoopWithoutFormat(t *testing.T) {
	d := NewDownloadDriver(Config{ExecutablePath: "/bin/true"})
	d.SetUrl("https://example.com/v1")
	d.Start()
	select {
	case ev := <-d.Events():
		t.Fatalf("expected no events without a selected format, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDownloadDriverInitFromStreamInfoSeedsSize(t *testing.T) {
	info := StreamInfo{
		DefaultTitle:    "Clip",
		DefaultFormatId: ParseFormatId("137"),
		DefaultSuffix:   "mp4",
		Formats: []StreamFormat{
			{FormatId: ParseFormatId("137"), Ext: "mp4", Filesize: 10 * 1024 * 1024},
		},
	}
	d := NewDownloadDriver(Config{})
	d.InitFromStreamInfo(info)

	if got := d.FileName(); got != "Clip.mp4" {
		t.Errorf("FileName() = %q, want Clip.mp4", got)
	}
	d.mu.Lock()
	gotSize := d.bytesTotalCurrentSection
	d.mu.Unlock()
	if gotSize != 10*1024*1024 {
		t.Errorf("expected seeded size 10MiB, got %d", gotSize)
	}
}

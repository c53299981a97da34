package stream

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"plain", "Hi", "Hi"},
		{"quotes", `Say "hi"`, "Say 'hi'"},
		{"slashes collapse", "a/b//c", "a_b_c"},
		{"legal chars kept", "Rock & Roll - 80's (Remix) [HD] #1, vol.2", "Rock & Roll - 80's (Remix) [HD] #1, vol.2"},
		{"trim", "  spaced  ", "spaced"},
		{"emoji becomes underscore", "abc😀def", "abc_def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameNeverHasDoubleUnderscore(t *testing.T) {
	inputs := []string{"a///b", "!!!!!", "a!@#$%^&*b", ""}
	for _, in := range inputs {
		got := sanitizeFileName(in)
		for i := 1; i < len(got); i++ {
			if got[i-1] == '_' && got[i] == '_' {
				t.Errorf("sanitizeFileName(%q) = %q has consecutive underscores", in, got)
			}
		}
	}
}

func TestStreamInfoTitleOverride(t *testing.T) {
	si := StreamInfo{DefaultTitle: "Default"}
	if si.Title() != "Default" {
		t.Fatalf("expected Default, got %q", si.Title())
	}
	si.SetTitle("Custom")
	if si.Title() != "Custom" {
		t.Fatalf("expected Custom, got %q", si.Title())
	}
	si.SetTitle("Default")
	if si.Title() != "Default" {
		t.Fatalf("resetting to default should clear override, got %q", si.Title())
	}
}

func TestStreamInfoFormatIdClearsSuffixOverride(t *testing.T) {
	si := StreamInfo{
		DefaultFormatId: ParseFormatId("22"),
		DefaultSuffix:   "mp4",
	}
	si.SetSuffix("mkv")
	if si.Suffix() != "mkv" {
		t.Fatalf("expected mkv override, got %q", si.Suffix())
	}
	si.SetFormatId(ParseFormatId("137+251"))
	if si.hasUserSuffix {
		t.Fatal("setFormatId must clear the user suffix override")
	}
}

func TestStreamInfoSuffixPolicyIdempotence(t *testing.T) {
	si := StreamInfo{
		DefaultFormatId: ParseFormatId("22"),
		DefaultSuffix:   "mp4",
	}
	si.SetSuffix("mp4")
	if si.Suffix() != "mp4" {
		t.Fatalf("setSuffix(defaultSuffix) then suffix() should equal defaultSuffix, got %q", si.Suffix())
	}
	if si.hasUserSuffix {
		t.Fatal("setting suffix back to default should clear the override")
	}
}

func TestStreamInfoSuffixDerivation(t *testing.T) {
	si := StreamInfo{
		DefaultFormatId: ParseFormatId("22"),
		DefaultSuffix:   "mp4",
		Formats: []StreamFormat{
			{FormatId: ParseFormatId("137"), Ext: "mp4", Vcodec: "avc1", Acodec: codecNone},
			{FormatId: ParseFormatId("251"), Ext: "webm", Vcodec: codecNone, Acodec: "opus"},
		},
	}
	// composite with a video atom: its ext wins as soon as seen.
	si.SetFormatId(ParseFormatId("137+251"))
	if got := si.Suffix(); got != "mp4" {
		t.Errorf("expected mp4 (video atom ext), got %q", got)
	}

	// composite of audio-only atoms: last seen atom's ext wins.
	si2 := StreamInfo{
		DefaultFormatId: ParseFormatId("22"),
		DefaultSuffix:   "mp4",
		Formats: []StreamFormat{
			{FormatId: ParseFormatId("139"), Ext: "m4a", Vcodec: codecNone, Acodec: "aac"},
			{FormatId: ParseFormatId("251"), Ext: "webm", Vcodec: codecNone, Acodec: "opus"},
		},
	}
	si2.SetFormatId(ParseFormatId("139+251"))
	if got := si2.Suffix(); got != "webm" {
		t.Errorf("expected webm (last audio atom ext), got %q", got)
	}
}

func TestStreamInfoSuffixEmptyDefaultFormatId(t *testing.T) {
	si := StreamInfo{}
	if si.Suffix() != "???" {
		t.Errorf("expected ??? when defaultFormatId is empty, got %q", si.Suffix())
	}
}

func TestStreamInfoFullFileName(t *testing.T) {
	si := StreamInfo{
		DefaultTitle:    "Hi",
		DefaultFormatId: ParseFormatId("22"),
		DefaultSuffix:   "mp4",
	}
	if got := si.FullFileName(); got != "Hi.mp4" {
		t.Errorf("got %q, want Hi.mp4", got)
	}
}

func TestGuestimateFullSize(t *testing.T) {
	si := StreamInfo{
		DefaultFormatId: ParseFormatId("137+251"),
		Formats: []StreamFormat{
			{FormatId: ParseFormatId("137"), Filesize: 700},
			{FormatId: ParseFormatId("251"), Filesize: 300},
		},
	}
	if got := si.GuestimateFullSize(); got != 1000 {
		t.Errorf("got %d, want 1000", got)
	}

	// missing atom contributes 0
	si.SetFormatId(ParseFormatId("137+999"))
	if got := si.GuestimateFullSize(); got != 700 {
		t.Errorf("got %d, want 700", got)
	}

	// empty id -> -1
	empty := StreamInfo{}
	if got := empty.GuestimateFullSize(); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestStreamInfoIsAvailable(t *testing.T) {
	ok := StreamInfo{Error: NoError}
	bad := StreamInfo{Error: UnavailableError}
	if !ok.IsAvailable() {
		t.Error("expected NoError to be available")
	}
	if bad.IsAvailable() {
		t.Error("expected UnavailableError to be unavailable")
	}
}

func TestDefaultAudioVideoFormats(t *testing.T) {
	si := StreamInfo{
		Formats: []StreamFormat{
			{FormatId: ParseFormatId("1"), Vcodec: "avc1", Acodec: "mp4a", Width: 640, Height: 360},
			{FormatId: ParseFormatId("2"), Vcodec: "avc1", Acodec: "mp4a", Width: 1280, Height: 720},
			{FormatId: ParseFormatId("3"), Vcodec: codecNone, Acodec: "opus"},
			{FormatId: ParseFormatId("4"), Vcodec: "vp9", Acodec: codecNone},
		},
	}
	def := si.DefaultFormats()
	if len(def) != 2 {
		t.Fatalf("expected 2 default formats, got %d", len(def))
	}
	if def[0].Width != 640 || def[1].Width != 1280 {
		t.Errorf("expected ascending width order, got %v then %v", def[0].Width, def[1].Width)
	}
	if len(si.AudioFormats()) != 1 {
		t.Errorf("expected 1 audio-only format")
	}
	if len(si.VideoFormats()) != 1 {
		t.Errorf("expected 1 video-only format")
	}
}

func TestIsMergeFormat(t *testing.T) {
	for _, ext := range []string{"mkv", "mp4", "ogg", "webm", "flv", "MKV"} {
		if !IsMergeFormat(ext) {
			t.Errorf("expected %q to be a merge format", ext)
		}
	}
	if IsMergeFormat("avi") {
		t.Error("avi should not be a merge format")
	}
}

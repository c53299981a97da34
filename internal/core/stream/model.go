package stream

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// errNone is the sentinel codec value the extractor uses for "no track".
const codecNone = "none"

// mergeFormats are the only containers the extractor can target when
// joining separately-downloaded audio and video.
var mergeFormats = map[string]bool{
	"mkv":  true,
	"mp4":  true,
	"ogg":  true,
	"webm": true,
	"flv":  true,
}

// IsMergeFormat reports whether ext is a container the extractor can
// merge audio and video into via --merge-output-format.
func IsMergeFormat(ext string) bool {
	return mergeFormats[strings.ToLower(ext)]
}

// StreamFormat describes a single atomic track.
type StreamFormat struct {
	FormatId    FormatId
	Ext         string
	FormatNote  string
	Filesize    int64
	Acodec      string
	Abr         int
	Asr         int
	Vcodec      string
	Width       int
	Height      int
	Fps         int
	Tbr         int
}

// HasVideo reports whether the track carries a video codec.
func (f StreamFormat) HasVideo() bool { return f.Vcodec != codecNone && f.Vcodec != "" }

// HasAudio reports whether the track carries an audio codec.
func (f StreamFormat) HasAudio() bool { return f.Acodec != codecNone && f.Acodec != "" }

// Equal compares two StreamFormat values field by field.
func (f StreamFormat) Equal(other StreamFormat) bool {
	return f.FormatId.Equal(other.FormatId) &&
		f.Ext == other.Ext &&
		f.FormatNote == other.FormatNote &&
		f.Filesize == other.Filesize &&
		f.Acodec == other.Acodec &&
		f.Abr == other.Abr &&
		f.Asr == other.Asr &&
		f.Vcodec == other.Vcodec &&
		f.Width == other.Width &&
		f.Height == other.Height &&
		f.Fps == other.Fps &&
		f.Tbr == other.Tbr
}

// describe renders a human-readable label used for sorting/dedup and for
// display, mirroring the original's toString().
func (f StreamFormat) describe() string {
	switch {
	case f.HasVideo() && f.HasAudio():
		note := ""
		if f.FormatNote != "" {
			note = " (" + f.FormatNote + ")"
		}
		return strings.TrimSpace(dimOrQ(f.Width) + "x" + dimOrQ(f.Height) + note)
	case f.HasVideo():
		return strings.ToUpper(f.Ext) + " " + f.Vcodec
	case f.HasAudio():
		return strings.ToUpper(f.Ext) + " " + f.Acodec
	default:
		return ""
	}
}

func dimOrQ(n int) string {
	if n <= 0 {
		return "?"
	}
	return strconv.Itoa(n)
}

// StreamErrorStatus classifies why a StreamInfo is or isn't usable.
type StreamErrorStatus int

const (
	NoError StreamErrorStatus = iota
	JsonFormatError
	UnavailableError
)

// PlaylistItem is a flat playlist entry — the authoritative ordering for
// a playlist, with no per-item format listing.
type PlaylistItem struct {
	Type   string
	Id     string
	IeKey  string
	Title  string
	Url    string
}

// StreamInfo is a single media resource's metadata, produced atomically
// by MetadataCollector and thereafter treated as a value snapshot; only
// the three user-override fields are meant to be mutated by a consumer.
type StreamInfo struct {
	Id              string
	Filename        string
	WebpageUrl      string
	Fulltitle       string
	DefaultTitle    string
	DefaultSuffix   string
	Description     string
	Thumbnail       string
	Extractor       string
	ExtractorKey    string
	DefaultFormatId FormatId
	Formats         []StreamFormat
	Playlist        string
	PlaylistIndex   string
	Error           StreamErrorStatus

	userTitle        string
	userSuffix       string
	userFormatId     FormatId
	hasUserTitle     bool
	hasUserSuffix    bool
	hasUserFormatId  bool
}

// Title returns the user override if set, else DefaultTitle.
func (s StreamInfo) Title() string {
	if s.hasUserTitle {
		return s.userTitle
	}
	return s.DefaultTitle
}

// SetTitle overrides the title; setting it back to the default clears
// the override.
func (s *StreamInfo) SetTitle(title string) {
	if title == s.DefaultTitle {
		s.hasUserTitle = false
		s.userTitle = ""
		return
	}
	s.hasUserTitle = true
	s.userTitle = title
}

// FormatId returns the user override if set, else DefaultFormatId.
func (s StreamInfo) FormatId() FormatId {
	if s.hasUserFormatId {
		return s.userFormatId
	}
	return s.DefaultFormatId
}

// SetFormatId overrides the composite format; this always clears the
// suffix override, since the suffix must be re-derived from the new
// composite. Setting it back to the default clears the format override.
func (s *StreamInfo) SetFormatId(id FormatId) {
	s.hasUserSuffix = false
	s.userSuffix = ""
	if id.Equal(s.DefaultFormatId) {
		s.hasUserFormatId = false
		s.userFormatId = FormatId{}
		return
	}
	s.hasUserFormatId = true
	s.userFormatId = id
}

// Suffix returns the user override if set, else the derived suffix for
// the current FormatId().
func (s StreamInfo) Suffix() string {
	if s.hasUserSuffix {
		return s.userSuffix
	}
	return s.suffixFor(s.FormatId())
}

// SetSuffix overrides the suffix; setting it back to DefaultSuffix clears
// the override.
func (s *StreamInfo) SetSuffix(suffix string) {
	if suffix == s.DefaultSuffix {
		s.hasUserSuffix = false
		s.userSuffix = ""
		return
	}
	s.hasUserSuffix = true
	s.userSuffix = suffix
}

// suffixFor derives the container extension for a composite format id:
// the default suffix if id equals DefaultFormatId; else the last atom's
// ext seen while scanning in order, except that the ext of the first
// atom with HasVideo() wins immediately.
func (s StreamInfo) suffixFor(id FormatId) string {
	if s.DefaultFormatId.IsEmpty() {
		return "???"
	}
	if id.Equal(s.DefaultFormatId) {
		return s.DefaultSuffix
	}
	suffix := s.DefaultSuffix
	for _, atomId := range id.CompoundIds() {
		for _, f := range s.Formats {
			if atomId.Equal(f.FormatId) {
				if f.HasVideo() {
					return f.Ext
				}
				suffix = f.Ext
			}
		}
	}
	return suffix
}

// legalChars are kept verbatim in a sanitized filename, beyond letters
// and digits.
const legalChars = "-+' @()[]{}°#,.&"

var underscoreRuns = regexp.MustCompile(`_+`)

// FileBaseName sanitizes Title(): letters, digits and legalChars are
// kept; double quotes become single quotes; anything else becomes '_';
// runs of '_' collapse to one; the result is whitespace-trimmed.
func (s StreamInfo) FileBaseName() string {
	return sanitizeFileName(s.Title())
}

func sanitizeFileName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(legalChars, r):
			b.WriteRune(r)
		case r == '"':
			b.WriteRune('\'')
		default:
			b.WriteRune('_')
		}
	}
	collapsed := underscoreRuns.ReplaceAllString(b.String(), "_")
	return strings.TrimSpace(collapsed)
}

// FullFileName is FileBaseName + "." + Suffix(), or just FileBaseName
// when the suffix is empty.
func (s StreamInfo) FullFileName() string {
	suffix := s.Suffix()
	if suffix == "" {
		return s.FileBaseName()
	}
	return s.FileBaseName() + "." + suffix
}

// IsAvailable reports whether the item extracted without error.
func (s StreamInfo) IsAvailable() bool {
	return s.Error == NoError
}

// GuestimateFullSize sums the Filesize of each atom in the current
// FormatId()'s compound ids, treating a missing atom as 0 bytes.
// Returns -1 for an empty FormatId.
func (s StreamInfo) GuestimateFullSize() int64 {
	return s.GuestimateFullSizeFor(s.FormatId())
}

// GuestimateFullSizeFor is GuestimateFullSize for an arbitrary id.
func (s StreamInfo) GuestimateFullSizeFor(id FormatId) int64 {
	if id.IsEmpty() {
		return -1
	}
	sizes := make(map[string]int64, len(s.Formats))
	for _, f := range s.Formats {
		sizes[f.FormatId.String()] = f.Filesize
	}
	var total int64
	for _, atom := range id.CompoundIds() {
		total += sizes[atom.String()]
	}
	return total
}

// DefaultFormats returns formats with both video and audio, deduplicated
// and sorted ascending by (width, height, description) — the user-facing
// "one-click" set.
func (s StreamInfo) DefaultFormats() []StreamFormat {
	type keyed struct {
		key string
		f   StreamFormat
	}
	seen := make(map[string]StreamFormat)
	var order []string
	for _, f := range s.Formats {
		if f.HasVideo() && f.HasAudio() {
			key := f.describe()
			if _, ok := seen[key]; !ok {
				order = append(order, key)
			}
			seen[key] = f
		}
	}
	list := make([]keyed, 0, len(order))
	for _, k := range order {
		list = append(list, keyed{key: k, f: seen[k]})
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].f, list[j].f
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return list[i].key < list[j].key
	})
	out := make([]StreamFormat, len(list))
	for i, k := range list {
		out[i] = k.f
	}
	return out
}

// AudioFormats returns audio-only formats in insertion order.
func (s StreamInfo) AudioFormats() []StreamFormat {
	var out []StreamFormat
	for _, f := range s.Formats {
		if !f.HasVideo() && f.HasAudio() {
			out = append(out, f)
		}
	}
	return out
}

// VideoFormats returns video-only formats in insertion order.
func (s StreamInfo) VideoFormats() []StreamFormat {
	var out []StreamFormat
	for _, f := range s.Formats {
		if f.HasVideo() && !f.HasAudio() {
			out = append(out, f)
		}
	}
	return out
}

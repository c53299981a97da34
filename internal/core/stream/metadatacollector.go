package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// CollectorEvent is the sum type MetadataCollector emits: exactly one of
// Collected or Err is ever set on a given value.
type CollectorEvent struct {
	Collected []StreamInfo
	Err       string
}

// rawDumpFormat mirrors the subset of --dump-json's per-format object the
// collector cares about.
type rawDumpFormat struct {
	FormatId   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	FormatNote string  `json:"format_note"`
	Filesize   int64   `json:"filesize"`
	Acodec     string  `json:"acodec"`
	Abr        float64 `json:"abr"`
	Asr        int     `json:"asr"`
	Vcodec     string  `json:"vcodec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Fps        float64 `json:"fps"`
	Tbr        float64 `json:"tbr"`
}

// rawDumpInfo mirrors the subset of a --dump-json top-level object the
// collector cares about.
type rawDumpInfo struct {
	Id            string          `json:"id"`
	Title         string          `json:"title"`
	WebpageUrl    string          `json:"webpage_url"`
	Description   string          `json:"description"`
	Thumbnail     string          `json:"thumbnail"`
	Extractor     string          `json:"extractor"`
	ExtractorKey  string          `json:"extractor_key"`
	FormatId      string          `json:"format_id"`
	Ext           string          `json:"ext"`
	Formats       []rawDumpFormat `json:"formats"`
	PlaylistId    string          `json:"playlist_id"`
	PlaylistIndex json.Number     `json:"playlist_index"`
}

// MetadataCollector probes a URL for downloadable stream metadata by
// running the extractor's JSON dump and flat-playlist listing side by
// side, then reconciling the two into an ordered slice of StreamInfo.
// It is grounded on the original's StreamInfoDownloader: two QProcess
// children feeding one result, with a single cache-purge-and-retry
// escape hatch for transient ill-formed-JSON failures.
type MetadataCollector struct {
	cfg Config

	mu               sync.Mutex
	url              string
	cancelled        bool
	cancelledEmitted bool
	purgeAttempted   bool

	dumpMap  map[string]StreamInfo
	flatList []PlaylistItem

	dumpReady bool
	flatReady bool

	dumpRunner *ProcessRunner
	flatRunner *ProcessRunner

	events chan CollectorEvent
}

// NewMetadataCollector creates a collector bound to cfg. Call RunAsync to
// start a probe; a collector may be reused for successive URLs once the
// previous probe has converged.
func NewMetadataCollector(cfg Config) *MetadataCollector {
	return &MetadataCollector{
		cfg:    cfg,
		events: make(chan CollectorEvent, 4),
	}
}

// Events returns the channel on which Collected/Err results arrive.
func (c *MetadataCollector) Events() <-chan CollectorEvent { return c.events }

// RunAsync starts (or restarts) a probe of url, launching the dump and
// flat-playlist children concurrently.
func (c *MetadataCollector) RunAsync(url string) {
	c.mu.Lock()
	c.url = url
	c.cancelled = false
	c.cancelledEmitted = false
	c.dumpMap = make(map[string]StreamInfo)
	c.flatList = nil
	c.dumpReady = false
	c.flatReady = false
	c.mu.Unlock()

	c.runDump()
	c.runFlat()
}

// Stop kills both in-flight children and arms the cancellation flag,
// suppressing any success emission still in flight; a single
// "Cancelled." error is emitted in its place.
func (c *MetadataCollector) Stop() {
	c.mu.Lock()
	c.cancelled = true
	dr, fr := c.dumpRunner, c.flatRunner
	c.mu.Unlock()

	if dr != nil {
		dr.Release()
	}
	if fr != nil {
		fr.Release()
	}
}

func (c *MetadataCollector) runDump() {
	args := []string{"--dump-json", "--yes-playlist", "--no-color", "--no-check-certificate", "--ignore-config", "--ignore-errors"}
	if c.cfg.UserAgent != "" {
		args = append(args, "--user-agent", c.cfg.UserAgent)
	}
	c.mu.Lock()
	args = append(args, c.url)
	r := NewProcessRunner(c.cfg.executableName())
	c.dumpRunner = r
	c.mu.Unlock()

	r.Start(context.Background(), args...)
	go c.consumeDump(r)
}

func (c *MetadataCollector) runFlat() {
	c.mu.Lock()
	args := []string{"--dump-json", "--flat-playlist", "--no-color", "--no-check-certificate", "--ignore-config", "--ignore-errors", c.url}
	r := NewProcessRunner(c.cfg.executableName())
	c.flatRunner = r
	c.mu.Unlock()

	r.Start(context.Background(), args...)
	go c.consumeFlat(r)
}

func (c *MetadataCollector) consumeDump(r *ProcessRunner) {
	var stdout []string
	var stderr []string
	var exit *ExitEvent
	var spawnErr *SpawnErrorKind
	for ev := range r.Events() {
		if ev.Line != nil {
			if ev.Line.Stream == Stdout {
				stdout = append(stdout, ev.Line.Text)
			} else {
				stderr = append(stderr, ev.Line.Text)
			}
		}
		if ev.Exited != nil {
			exit = ev.Exited
		}
		if ev.SpawnError != nil {
			spawnErr = ev.SpawnError
		}
	}
	c.onDumpFinished(stdout, stderr, exit, spawnErr)
}

func (c *MetadataCollector) consumeFlat(r *ProcessRunner) {
	var stdout []string
	var exit *ExitEvent
	var spawnErr *SpawnErrorKind
	for ev := range r.Events() {
		if ev.Line != nil && ev.Line.Stream == Stdout {
			stdout = append(stdout, ev.Line.Text)
		}
		if ev.Exited != nil {
			exit = ev.Exited
		}
		if ev.SpawnError != nil {
			spawnErr = ev.SpawnError
		}
	}
	c.onFlatFinished(stdout, exit, spawnErr)
}

func (c *MetadataCollector) onDumpFinished(stdout, stderr []string, exit *ExitEvent, spawnErr *SpawnErrorKind) {
	if c.takeCancelled() {
		return
	}
	if spawnErr != nil || (exit != nil && !exit.Normal) {
		c.emitError("The process crashed.")
		return
	}
	if exit == nil {
		return
	}

	dumpMap := parseDumpMap(stdout, stderr)

	if exit.Code != 0 {
		isPlaylist := len(dumpMap) > 1
		c.mu.Lock()
		purged := c.purgeAttempted
		c.mu.Unlock()
		if !isPlaylist && !purged {
			c.retryAfterCachePurge()
			return
		}
	}

	if len(dumpMap) == 0 {
		c.emitError("Couldn't parse JSON file.")
		return
	}

	c.mu.Lock()
	c.dumpMap = dumpMap
	c.dumpReady = true
	c.mu.Unlock()
	c.tryReconcile()
}

func (c *MetadataCollector) onFlatFinished(stdout []string, exit *ExitEvent, spawnErr *SpawnErrorKind) {
	if c.takeCancelled() {
		return
	}
	if spawnErr != nil || (exit != nil && !exit.Normal) {
		c.emitError("The process crashed.")
		return
	}
	if exit == nil {
		return
	}
	if exit.Code != 0 {
		c.emitError("Couldn't parse playlist (ill-formed JSON file).")
		return
	}

	flatList := parseFlatList(stdout)
	if len(flatList) == 0 {
		c.emitError("Couldn't parse playlist (no data received).")
		return
	}

	c.mu.Lock()
	c.flatList = flatList
	c.flatReady = true
	c.mu.Unlock()
	c.tryReconcile()
}

// retryAfterCachePurge runs the one-shot cache purge escape hatch: stop
// both children, purge, and restart the whole probe exactly once.
func (c *MetadataCollector) retryAfterCachePurge() {
	c.mu.Lock()
	c.purgeAttempted = true
	url := c.url
	c.mu.Unlock()

	c.Stop()

	purge := NewCachePurge(c.cfg)
	done := purge.RunAsync()
	go func() {
		<-done
		c.mu.Lock()
		cancelled := c.cancelled
		c.mu.Unlock()
		if cancelled {
			return
		}
		c.RunAsync(url)
	}()
}

func (c *MetadataCollector) tryReconcile() {
	c.mu.Lock()
	if !c.dumpReady || !c.flatReady {
		c.mu.Unlock()
		return
	}
	dumpMap := c.dumpMap
	flatList := c.flatList
	c.mu.Unlock()

	results := make([]StreamInfo, 0, len(flatList))
	for i, item := range flatList {
		info, ok := dumpMap[item.Id]
		if !ok {
			info = StreamInfo{
				Id:           item.Id,
				Extractor:    item.IeKey,
				ExtractorKey: item.IeKey,
				WebpageUrl:   item.Url,
				DefaultTitle: item.Title,
				Error:        UnavailableError,
			}
		}
		if info.DefaultTitle == "" {
			info.DefaultTitle = item.Title
		}
		if info.WebpageUrl == "" {
			info.WebpageUrl = item.Url
		}
		info.PlaylistIndex = strconv.Itoa(i + 1)
		results = append(results, info)
	}

	c.emit(CollectorEvent{Collected: results})
}

func (c *MetadataCollector) takeCancelled() bool {
	c.mu.Lock()
	cancelled := c.cancelled
	shouldEmit := cancelled && !c.cancelledEmitted
	if shouldEmit {
		c.cancelledEmitted = true
	}
	c.mu.Unlock()

	if shouldEmit {
		c.emitError("Cancelled.")
	}
	return cancelled
}

func (c *MetadataCollector) emitError(msg string) {
	c.emit(CollectorEvent{Err: msg})
}

func (c *MetadataCollector) emit(ev CollectorEvent) {
	select {
	case c.events <- ev:
	default:
	}
}

// parseDumpMap decodes one --dump-json object per stdout line into a map
// keyed by stream id, and folds in stderr-reported unavailable items
// (the extractor prints "ERROR: <id>: <reason>" per failed item under
// --ignore-errors). A line that isn't valid JSON is kept as a
// JsonFormatError entry rather than dropped, so a malformed item still
// occupies a slot in the result instead of silently vanishing.
func parseDumpMap(stdout, stderr []string) map[string]StreamInfo {
	out := make(map[string]StreamInfo)
	for i, line := range stdout {
		var raw rawDumpInfo
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			id := bestEffortDumpId(line)
			if id == "" {
				id = fmt.Sprintf("!malformed-%d", i)
			}
			out[id] = StreamInfo{Id: id, Error: JsonFormatError}
			continue
		}
		if raw.Id == "" {
			continue
		}
		out[raw.Id] = rawToStreamInfo(raw)
	}
	for _, line := range stderr {
		id, reason, ok := getStreamId(line)
		if !ok {
			continue
		}
		if _, exists := out[id]; exists {
			continue
		}
		out[id] = StreamInfo{
			Id:           id,
			DefaultTitle: reason,
			Error:        UnavailableError,
		}
	}
	return out
}

// bestEffortDumpId recovers an id from a line whose top-level object
// otherwise failed to decode into rawDumpInfo — a nested field can be
// malformed while "id" itself is still intact.
func bestEffortDumpId(line string) string {
	var minimal struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal([]byte(line), &minimal); err == nil {
		return minimal.Id
	}
	return ""
}

// getStreamId extracts the id and reason from an "ERROR: <id>: <reason>"
// stderr line, matching the original's colon-split heuristic. It
// tolerates the plain "ERROR:" prefix and its ANSI red-colored form.
func getStreamId(line string) (id, reason string, ok bool) {
	const plain = "ERROR: "
	const colored = "\x1b[0;31mERROR:\x1b[0m "
	rest := line
	switch {
	case strings.HasPrefix(rest, colored):
		rest = rest[len(colored):]
	case strings.HasPrefix(rest, plain):
		rest = rest[len(plain):]
	default:
		return "", "", false
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

func rawToStreamInfo(raw rawDumpInfo) StreamInfo {
	formats := make([]StreamFormat, 0, len(raw.Formats))
	for _, f := range raw.Formats {
		formats = append(formats, StreamFormat{
			FormatId:   ParseFormatId(f.FormatId),
			Ext:        f.Ext,
			FormatNote: f.FormatNote,
			Filesize:   f.Filesize,
			Acodec:     f.Acodec,
			Abr:        int(f.Abr),
			Asr:        f.Asr,
			Vcodec:     f.Vcodec,
			Width:      f.Width,
			Height:     f.Height,
			Fps:        int(f.Fps),
			Tbr:        int(f.Tbr),
		})
	}
	return StreamInfo{
		Id:              raw.Id,
		WebpageUrl:      raw.WebpageUrl,
		Fulltitle:       raw.Title,
		DefaultTitle:    raw.Title,
		DefaultSuffix:   raw.Ext,
		Description:     raw.Description,
		Thumbnail:       raw.Thumbnail,
		Extractor:       raw.Extractor,
		ExtractorKey:    raw.ExtractorKey,
		DefaultFormatId: ParseFormatId(raw.FormatId),
		Formats:         formats,
		Playlist:        raw.PlaylistId,
		PlaylistIndex:   raw.PlaylistIndex.String(),
		Error:           NoError,
	}
}

// parseFlatList decodes one --flat-playlist object per stdout line into
// ordered PlaylistItems.
func parseFlatList(stdout []string) []PlaylistItem {
	out := make([]PlaylistItem, 0, len(stdout))
	for _, line := range stdout {
		var item struct {
			Type  string `json:"_type"`
			Id    string `json:"id"`
			IeKey string `json:"ie_key"`
			Title string `json:"title"`
			Url   string `json:"url"`
		}
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			continue
		}
		if item.Id == "" {
			continue
		}
		out = append(out, PlaylistItem{
			Type:  item.Type,
			Id:    item.Id,
			IeKey: item.IeKey,
			Title: item.Title,
			Url:   item.Url,
		})
	}
	return out
}

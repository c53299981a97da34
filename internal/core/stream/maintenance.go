package stream

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	versionMu     sync.Mutex
	cachedVersion string
)

// Version runs the blocking version probe ("--no-color --version") and
// returns the trimmed stdout, or "unknown" on any spawn/wait failure.
// The result is memoized process-wide after the first success; it must
// be invoked off the caller's event loop since it blocks.
func Version(cfg Config) string {
	versionMu.Lock()
	if cachedVersion != "" {
		v := cachedVersion
		versionMu.Unlock()
		return v
	}
	versionMu.Unlock()

	r := NewProcessRunner(cfg.executableName())
	defer r.Release()
	r.Start(context.Background(), "--no-color", "--version")

	var lastLine string
	var ok bool
	for ev := range r.Events() {
		if ev.Line != nil && ev.Line.Stream == Stdout {
			lastLine = ev.Line.Text
		}
		if ev.Exited != nil && ev.Exited.Normal && ev.Exited.Code == 0 {
			ok = true
		}
	}
	if !ok || lastLine == "" {
		return "unknown"
	}

	versionMu.Lock()
	cachedVersion = lastLine
	versionMu.Unlock()
	return lastLine
}

// SelfUpgradeDone is emitted once the extractor's own --update child has
// exited, success or not.
type SelfUpgradeDone struct{}

// SelfUpgrade spawns "--no-color --update" and returns a channel that
// receives exactly one value once the child has exited.
func SelfUpgrade(cfg Config) <-chan SelfUpgradeDone {
	done := make(chan SelfUpgradeDone, 1)
	r := NewProcessRunner(cfg.executableName())
	r.Start(context.Background(), "--no-color", "--update")
	go func() {
		defer r.Release()
		for range r.Events() {
			// stdout/stderr are drained but not surfaced, matching the
			// original's qDebug()-only logging of this child's output.
		}
		done <- SelfUpgradeDone{}
		close(done)
	}()
	return done
}

// CachePurge runs the extractor's --rm-cache-dir one-shot and reports
// "done" on completion, success or crash alike — purge is advisory.
// isCleaned is sticky per CachePurge instance (per collector lifetime),
// not a global: once done, repeat Run calls are no-ops.
type CachePurge struct {
	cfg Config

	mu      sync.Mutex
	cleaned bool
}

// NewCachePurge creates a purge op bound to cfg.
func NewCachePurge(cfg Config) *CachePurge {
	return &CachePurge{cfg: cfg}
}

// IsCleaned reports whether a purge has completed (successfully or not)
// on this instance.
func (p *CachePurge) IsCleaned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleaned
}

// RunAsync starts the purge and returns a channel receiving exactly one
// value when it is done.
func (p *CachePurge) RunAsync() <-chan struct{} {
	done := make(chan struct{}, 1)
	r := NewProcessRunner(p.cfg.executableName())
	r.Start(context.Background(), "--no-color", "--rm-cache-dir")
	go func() {
		defer r.Release()
		for range r.Events() {
		}
		p.mu.Lock()
		p.cleaned = true
		p.mu.Unlock()
		done <- struct{}{}
		close(done)
	}()
	return done
}

// CacheDir resolves the extractor's cache directory per the XDG
// standard: $XDG_CACHE_HOME, or $HOME/.cache if unset.
func CacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Clean(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Clean(filepath.Join(home, ".cache"))
}

// ExtractorListResult carries the paired extractor names and their
// descriptions, in the order the tool emitted them. Empty lines are
// preserved — the tool pairs a name with a blank description line when
// it has none.
type ExtractorListResult struct {
	Extractors   []string
	Descriptions []string
	Err          string
}

// ListExtractors runs "--list-extractors" and "--extractor-descriptions"
// in parallel and returns the combined result once both have completed
// (or one has failed).
func ListExtractors(cfg Config) <-chan ExtractorListResult {
	out := make(chan ExtractorListResult, 1)

	type partial struct {
		lines []string
		err   string
		ok    bool
	}
	names := make(chan partial, 1)
	descs := make(chan partial, 1)

	run := func(result chan<- partial, arg string) {
		r := NewProcessRunner(cfg.executableName()).PreserveEmptyLines()
		defer r.Release()
		r.Start(context.Background(), "--no-color", arg)

		var stdout, stderr []string
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
		switch {
		case spawnErr != nil:
			result <- partial{err: "The process crashed."}
		case exit != nil && !exit.Normal:
			result <- partial{err: "The process crashed."}
		case exit != nil && exit.Code != 0:
			result <- partial{err: strings.Join(stderr, "\n")}
		default:
			result <- partial{lines: stdout, ok: true}
		}
	}

	go run(names, "--list-extractors")
	go run(descs, "--extractor-descriptions")

	go func() {
		n := <-names
		d := <-descs
		if !n.ok {
			out <- ExtractorListResult{Err: n.err}
			close(out)
			return
		}
		if !d.ok {
			out <- ExtractorListResult{Err: d.err}
			close(out)
			return
		}
		out <- ExtractorListResult{Extractors: n.lines, Descriptions: d.lines}
		close(out)
	}()

	return out
}

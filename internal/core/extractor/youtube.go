package extractor

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/guiyumin/vget/internal/core/config"
	"github.com/guiyumin/vget/internal/core/stream"
)

// YouTubeDockerRequiredError indicates YouTube extraction needs Docker
type YouTubeDockerRequiredError struct {
	URL string
}

func (e *YouTubeDockerRequiredError) Error() string {
	return "YouTube extraction requires Docker"
}

// YouTubeDirectDownload indicates the extractor-backed download engine
// should handle the download directly rather than vget's HTTP downloader
type YouTubeDirectDownload struct {
	URL       string
	OutputDir string
}

// Implement Media interface for YouTubeDirectDownload
func (y *YouTubeDirectDownload) GetID() string       { return y.URL }
func (y *YouTubeDirectDownload) GetTitle() string    { return "YouTube Video" }
func (y *YouTubeDirectDownload) GetUploader() string { return "" }
func (y *YouTubeDirectDownload) Type() MediaType     { return MediaTypeVideo }

// ytdlpExtractor routes YouTube URLs to the extractor-backed download
// engine (internal/core/stream) instead of vget's HTTP downloader
// (Docker only, since YouTube throttles non-containerized clients)
type ytdlpExtractor struct{}

func (e *ytdlpExtractor) Name() string {
	return "YouTube (stream engine)"
}

func (e *ytdlpExtractor) Match(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	return host == "youtube.com" ||
		host == "www.youtube.com" ||
		host == "youtu.be" ||
		host == "m.youtube.com" ||
		host == "music.youtube.com"
}

func (e *ytdlpExtractor) Extract(urlStr string) (Media, error) {
	if !isRunningInDocker() {
		return nil, &YouTubeDockerRequiredError{URL: urlStr}
	}

	// For YouTube, return a marker telling the caller to hand the URL to
	// the stream engine directly. OutputDir is set by the caller from config.
	return &YouTubeDirectDownload{
		URL: urlStr,
	}, nil
}

func streamConfigFromAppConfig() (stream.Config, string) {
	cfg := config.LoadOrDefault()
	sc := stream.Config{
		ExecutablePath: cfg.Stream.ExecutablePath,
		UserAgent:      cfg.Stream.UserAgent,
		Referer:        cfg.Stream.Referer,
	}
	return sc, cfg.Stream.MergeFormat
}

// DownloadWithYtdlp downloads a YouTube video through the stream engine,
// streaming the extractor's own stdout/stderr to the console.
func DownloadWithYtdlp(url, outputDir string) error {
	return DownloadWithYtdlpProgress(context.Background(), url, outputDir, nil)
}

// DownloadWithYtdlpProgress downloads a YouTube video through the stream
// engine, reporting byte progress to progressFn as it arrives. progressFn
// may be nil, in which case progress events are simply discarded.
func DownloadWithYtdlpProgress(ctx context.Context, url, outputDir string, progressFn func(downloaded, total int64)) error {
	sc, mergeFormat := streamConfigFromAppConfig()
	outputTemplate := filepath.Join(outputDir, "%(title)s.%(ext)s")

	driver := stream.NewDownloadDriver(sc)
	driver.SetUrl(url)
	driver.SetLocalFullOutputPath(outputTemplate)
	driver.SetSelectedFormatId(stream.ParseFormatId("best"))
	if mergeFormat != "" {
		driver.SetFileExtensionHint(mergeFormat)
	}
	driver.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			driver.Abort()
		case <-done:
		}
	}()
	defer close(done)

	for ev := range driver.Events() {
		switch {
		case ev.Progress != nil:
			if progressFn != nil {
				progressFn(ev.Progress.BytesReceived, ev.Progress.BytesTotal)
			}
		case ev.Finished != nil:
			return nil
		case ev.Err != "":
			return errors.New(ev.Err)
		}
	}
	return nil
}

// isRunningInDocker detects if we're running inside a Docker container
func isRunningInDocker() bool {
	// Method 1: Check for .dockerenv file
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	// Method 2: Check cgroup (Linux)
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		if strings.Contains(content, "docker") || strings.Contains(content, "containerd") {
			return true
		}
	}

	// Method 3: Check for kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	return false
}

func init() {
	Register(&ytdlpExtractor{},
		"youtube.com",
		"www.youtube.com",
		"youtu.be",
		"m.youtube.com",
		"music.youtube.com",
	)
}

package stream

// Config is the process-wide configuration every collector, driver and
// maintenance operation is constructed from. It plays the role of the
// original's write-once/read-many globals (s_youtubedl_version,
// s_youtubedl_user_agent): built once at startup and passed down rather
// than mutated concurrently.
type Config struct {
	// ExecutablePath overrides the platform-default extractor binary
	// name/path. Empty means the default: "youtube-dl.exe" on Windows,
	// "./youtube-dl" (working-directory relative) elsewhere.
	ExecutablePath string

	// UserAgent, when non-empty, is passed to the extractor via
	// --user-agent on every probe and download.
	UserAgent string

	// Referer, when non-empty, is passed to the download child via
	// --referer. Metadata probes never send it.
	Referer string
}

func (c Config) executableName() string {
	if c.ExecutablePath != "" {
		return c.ExecutablePath
	}
	return extractorProgramName()
}

// Package stream drives an external youtube-dl-class extractor binary:
// it probes a URL for metadata, lets a consumer pick a composite format,
// and runs the download to completion while reporting byte progress.
//
// The package owns three kinds of child processes: the metadata probes
// (dump-json and flat-playlist), the download itself, and one-shot
// maintenance operations (version, self-upgrade, cache purge, extractor
// listing). None of it talks HTTP directly; all network work happens
// inside the external binary.
package stream

package version

// Version is the current vget version, overridden at build time via -ldflags.
var Version = "dev"

package config

var (
	// Version of the release, set with -ldflags at build time
	Version string
	// BuildTime is ISO-8601 UTC string representation of the time of
	// the build
	BuildTime string
)

package common

// Version information set at build time via ldflags
var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildTime = "unknown"
)

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

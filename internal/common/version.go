package common

// Build metadata, overridden at link time with
// -ldflags "-X github.com/billfold/billfold/internal/common.BuildVersion=..."
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// NewBuildConfig collects the linker-set build metadata.
func NewBuildConfig() BuildConfig {
	return BuildConfig{
		BuildVersion: BuildVersion,
		BuildCommit:  BuildCommit,
		BuildDate:    BuildDate,
	}
}

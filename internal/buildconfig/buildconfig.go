package buildconfig

// Injected via -ldflags at release build time; the zero values identify a
// local development build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the build version.
func Version() string {
	return version
}

// Commit returns the git commit hash.
func Commit() string {
	return commit
}

// Date returns the build timestamp.
func Date() string {
	return date
}

// VersionInfo returns the full build identification, as exposed on the
// metrics endpoint and logged at startup.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
		"date":    date,
	}
}

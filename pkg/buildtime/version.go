package buildtime

// set at build time with
//
//	-ldflags "-X github.com/opst/playground/pkg/buildtime.version=... -X github.com/opst/playground/pkg/buildtime.revision=..."
var (
	version  = "dev"
	revision = "unknown"
)

// version string when this playground has been built.
func VERSION() string {
	return version
}

func GIT_REVISION() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}

// Package version exposes build metadata stamped at link time via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Get() string {
	return fmt.Sprintf("verso %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}

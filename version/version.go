// Package version reports build information compiled into the
// nameserver and storageserver binaries.
package version

import (
	"fmt"
	"time"
)

// These hold build information when a build step sets them. Nothing in
// this repository sets them, so by default Version reports "devel".
var (
	BuildTime = time.Time{}
	GitSHA    = ""
)

// Version returns a newline-terminated string describing the current
// build. If no build information was compiled in, it reports "devel".
func Version() string {
	if GitSHA == "" {
		return "devel\n"
	}
	str := fmt.Sprintf("Build time: %s\n", BuildTime.In(time.UTC).Format(time.Stamp+" 2006 UTC"))
	str += fmt.Sprintf("Git hash:   %s\n", GitSHA)
	return str
}

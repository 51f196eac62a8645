package ugen

import (
	"fmt"
	"os"
)

// Report receives non-fatal diagnostic messages, such as rejected filter
// parameters. Replace it to route messages elsewhere; tests swap it out to
// count reports. It must not be replaced while a graph is running.
var Report = func(msg string) {
	fmt.Fprintln(os.Stderr, "ugen: "+msg)
}

func reportf(format string, args ...any) {
	Report(fmt.Sprintf(format, args...))
}

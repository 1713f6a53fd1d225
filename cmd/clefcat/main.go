// Command clefcat renders compact log event format (CLEF) files as console
// lines, or re-encodes them as tmplog JSON or CLEF.
//
//	clefcat app.clef
//	clefcat --min-level warning --format json < app.clef
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "clefcat:", err)
		os.Exit(1)
	}
}

// Command daggerctl is the standalone tool for driving a generational
// scratch area from the command line, grounded on the reference
// implementation's dagger.c: confd's in-process dagger library shells out
// to this same external "dagger" binary for evolve and abandon ("systemf
// ("dagger -C %s evolve")"), rather than doing the current-symlink
// promotion itself. This binary covers that external surface plus the
// rest of the scratch area's operations, so an operator or a translator's
// shell script can drive a transaction without the confd daemon attached.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

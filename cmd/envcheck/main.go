// envcheck exits 0 when ITEST_ENV_VAR carries its expected value and 1
// otherwise. Integration tests launch it to confirm that the environment of a
// parent reaches its children.
package main

import (
	"fmt"
	"io"
	"os"
)

const (
	envVar   = "ITEST_ENV_VAR"
	envValue = "ITEST_ENV_VAR_VALUE"
)

func main() {
	os.Exit(run(os.LookupEnv, os.Stderr))
}

func run(lookup func(string) (string, bool), stderr io.Writer) int {
	got, ok := lookup(envVar)
	if !ok {
		fmt.Fprintf(stderr, "%s was not passed\n", envValue)
		return 1
	}
	if got != envValue {
		fmt.Fprintf(stderr, "%s=%q, want %q\n", envVar, got, envValue)
		return 1
	}
	return 0
}

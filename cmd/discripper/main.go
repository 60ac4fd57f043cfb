package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"discripper/internal/services"
)

// exitCode maps the error taxonomy onto shell exit codes so scripted
// callers can tell a bad invocation from device contention without
// parsing stderr.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrConfiguration):
		return 2
	case errors.Is(err, services.ErrConflict):
		return 3
	default:
		return 1
	}
}

func main() {
	err := newRootCommand().Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

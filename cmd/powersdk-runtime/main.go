// Command powersdk-runtime drives N devices from a single YAML
// config file: inspect the resolved pipeline with --dry-run, or poll
// every device once with --once (spec §6.5).
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// exitError lets a subcommand request a specific process exit code
// without cobra's default "any error implies exit 1" behavior. msg is
// printed by main if non-empty; commands that already printed their
// own "Error: ..." line (mirroring the original CLI's plain prints)
// leave it empty.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func newExitError(code int, format string, args ...interface{}) *exitError {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(130)
	}()

	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.msg != "" {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCodeFor(err))
	}
}

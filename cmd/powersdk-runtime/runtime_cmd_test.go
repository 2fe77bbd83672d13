package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testRuntimeConfig = `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  poll_interval: 10
  transport:
    key: mqtt
    opts:
      broker: iot.example.com
      port: 18760
devices:
  - id: dev1
    profile_id: EL100V2
    transport:
      opts:
        device_serial: SN-0001
sinks:
  mem:
    type: memory
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunRuntimeRequiresDryRunOrOnce(t *testing.T) {
	path := writeTestConfig(t, testRuntimeConfig)
	err := runRuntime(path, false, false, false)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
}

func TestRunRuntimeDryRunSucceeds(t *testing.T) {
	path := writeTestConfig(t, testRuntimeConfig)
	if err := runRuntime(path, true, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRuntimeConfigErrorExitsTwo(t *testing.T) {
	path := writeTestConfig(t, "version: 1\ndevices: []\n")
	err := runRuntime(path, true, false, false)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
}

func TestRunRuntimeOnceWithoutConnectReturnsExitOne(t *testing.T) {
	path := writeTestConfig(t, testRuntimeConfig)
	err := runRuntime(path, false, true, false)
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("expected exit code 1 (no transport connection made), got %v", err)
	}
}

func TestExitCodeForNonExitErrorDefaultsToOne(t *testing.T) {
	if got := exitCodeFor(errors.New("boom")); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestExitCodeForExitErrorUsesItsCode(t *testing.T) {
	if got := exitCodeFor(newExitError(2, "bad config")); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRuntimeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validRuntimeConfig = `
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
  - id: dev2
    profile_id: EL100V2
    poll_interval: 5
    transport:
      opts:
        device_serial: SN-0002
`

func TestFromConfigBuildsOneRuntimePerDevice(t *testing.T) {
	path := writeRuntimeConfig(t, validRuntimeConfig)
	reg, err := FromConfig(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("got %d runtimes, want 2", reg.Len())
	}
	if reg.Get("dev1") == nil || reg.Get("dev2") == nil {
		t.Fatal("expected both dev1 and dev2 to be registered")
	}
	if reg.Get("dev2").PollInterval.Seconds() != 5 {
		t.Fatalf("got poll interval %s, want 5s (entry override)", reg.Get("dev2").PollInterval)
	}
	if reg.Get("dev1").PollInterval.Seconds() != 10 {
		t.Fatalf("got poll interval %s, want 10s (defaults fallback)", reg.Get("dev1").PollInterval)
	}
}

func TestFromConfigRejectsUnknownVendorProtocol(t *testing.T) {
	path := writeRuntimeConfig(t, `
version: 1
defaults:
  vendor: acme
  protocol: v9
  transport: {key: mqtt, opts: {broker: b, port: 1}}
devices:
  - id: dev1
    profile_id: EL100V2
    transport: {opts: {device_serial: SN1}}
`)
	if _, err := FromConfig(path, nil); err == nil {
		t.Fatal("expected an error for an unregistered vendor/protocol pair")
	}
}

func TestFromConfigRejectsUnknownTransportKey(t *testing.T) {
	path := writeRuntimeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: carrier-pigeon}
devices:
  - id: dev1
    profile_id: EL100V2
`)
	if _, err := FromConfig(path, nil); err == nil {
		t.Fatal("expected an error for an unregistered transport key")
	}
}

func TestFromConfigRejectsInvalidDeviceAddress(t *testing.T) {
	path := writeRuntimeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt, opts: {broker: b, port: 1}}
devices:
  - id: dev1
    profile_id: EL100V2
    options:
      device_address: 0
    transport: {opts: {device_serial: SN1}}
`)
	if _, err := FromConfig(path, nil); err == nil {
		t.Fatal("expected an error for device_address=0")
	}
}

func TestDryRunReportsStreamingCapability(t *testing.T) {
	path := writeRuntimeConfig(t, validRuntimeConfig)
	reg, err := FromConfig(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summaries := reg.DryRun(nil)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	for _, s := range summaries {
		if !s.SupportsStreaming {
			t.Fatalf("device %q: expected bluetti/v2 to support streaming", s.DeviceID)
		}
		if s.CanWrite {
			t.Fatalf("device %q: expected bluetti/v2 to be read-only", s.DeviceID)
		}
		if s.Model != "EL100V2" {
			t.Fatalf("got model %q, want EL100V2", s.Model)
		}
	}
}

func TestPollAllOnceReturnsOneSnapshotPerDevice(t *testing.T) {
	path := writeRuntimeConfig(t, validRuntimeConfig)
	reg, err := FromConfig(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshots := reg.PollAllOnce(false, false)
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}
	for _, s := range snapshots {
		if s.OK() {
			t.Fatalf("device %q: expected a failure snapshot (no transport connection made)", s.DeviceID)
		}
	}
}

func TestAddRejectsDuplicateDeviceID(t *testing.T) {
	var reg RuntimeRegistry
	if err := reg.Add(&DeviceRuntime{DeviceID: "dev1"}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := reg.Add(&DeviceRuntime{DeviceID: "dev1"}); err == nil {
		t.Fatal("expected an error for a duplicate device ID")
	}
	if reg.Len() != 1 {
		t.Fatalf("got Len()=%d, want 1", reg.Len())
	}
}

func TestAddPreservesRegistrationOrder(t *testing.T) {
	var reg RuntimeRegistry
	reg.Add(&DeviceRuntime{DeviceID: "b"})
	reg.Add(&DeviceRuntime{DeviceID: "a"})
	runtimes := reg.Runtimes()
	if len(runtimes) != 2 || runtimes[0].DeviceID != "b" || runtimes[1].DeviceID != "a" {
		t.Fatalf("unexpected order: %v", runtimes)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("POWERSDK_TEST_BROKER", "mqtt.example.com")
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport:
    key: mqtt
devices:
  - id: dev1
    profile_id: EL100V2
    transport:
      opts:
        broker: "${POWERSDK_TEST_BROKER}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Devices[0].Transport.Opts["broker"] != "mqtt.example.com" {
		t.Fatalf("got %v, want expanded broker host", cfg.Devices[0].Transport.Opts["broker"])
	}
}

func TestLoadRejectsEmptyDevicesList(t *testing.T) {
	path := writeConfig(t, "version: 1\ndevices: []\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an empty devices list")
	}
}

func TestLoadRejectsDuplicateDeviceIDs(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt}
devices:
  - id: dup
    profile_id: EL100V2
  - id: dup
    profile_id: EL100V2
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for duplicate device ids")
	}
}

func TestLoadRequiresProfileID(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt}
devices:
  - id: dev1
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a missing profile_id")
	}
}

func TestLoadResolvesVendorFromPipelineTemplate(t *testing.T) {
	path := writeConfig(t, `
version: 1
pipelines:
  elite:
    vendor: bluetti
    protocol: v2
    transport: mqtt
devices:
  - id: dev1
    profile_id: EL100V2
    pipeline: elite
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolved := Resolve(cfg, cfg.Devices[0])
	if resolved.Vendor != "bluetti" || resolved.Protocol != "v2" || resolved.TransportKey != "mqtt" {
		t.Fatalf("got %+v, want vendor/protocol/transport from pipeline", resolved)
	}
}

func TestLoadRejectsUnknownPipelineReference(t *testing.T) {
	path := writeConfig(t, `
version: 1
devices:
  - id: dev1
    profile_id: EL100V2
    pipeline: does-not-exist
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown pipeline reference")
	}
}

func TestLoadRejectsMissingTransportKey(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
devices:
  - id: dev1
    profile_id: EL100V2
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unresolvable transport.key")
	}
}

func TestResolveMergesTransportOptsEntryOverDefaults(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport:
    key: mqtt
    opts:
      port: 18760
      broker: default-broker
devices:
  - id: dev1
    profile_id: EL100V2
    transport:
      opts:
        broker: override-broker
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolved := Resolve(cfg, cfg.Devices[0])
	if resolved.TransportOpts["broker"] != "override-broker" {
		t.Fatalf("got %v, want entry opts to win", resolved.TransportOpts["broker"])
	}
	if resolved.TransportOpts["port"] != 18760 {
		t.Fatalf("got %v, want default port to survive the merge", resolved.TransportOpts["port"])
	}
}

func TestValidateRejectsCompositeSinkCycle(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt}
devices:
  - id: dev1
    profile_id: EL100V2
sinks:
  a:
    type: composite
    refs: [b]
  b:
    type: composite
    refs: [a]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a composite sink reference cycle")
	}
}

func TestValidateRejectsCompositeSinkUnknownRef(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt}
devices:
  - id: dev1
    profile_id: EL100V2
sinks:
  a:
    type: composite
    refs: [missing]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a composite sink referencing an unknown sink")
	}
}

func TestDefaultModeIsPull(t *testing.T) {
	path := writeConfig(t, `
version: 1
defaults:
  vendor: bluetti
  protocol: v2
  transport: {key: mqtt}
devices:
  - id: dev1
    profile_id: EL100V2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolved := Resolve(cfg, cfg.Devices[0])
	if resolved.Mode != "pull" {
		t.Fatalf("got %q, want pull", resolved.Mode)
	}
}

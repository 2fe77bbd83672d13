package runtime

import "testing"

func TestManifestKeyCombinesVendorAndProtocol(t *testing.T) {
	m := &Manifest{Vendor: "bluetti", Protocol: "v2"}
	if m.Key() != "bluetti/v2" {
		t.Fatalf("got %q, want bluetti/v2", m.Key())
	}
}

func TestManifestCapabilityFlags(t *testing.T) {
	m := &Manifest{Capabilities: []string{"read", "stream"}}
	if !m.SupportsStreaming() {
		t.Fatal("expected SupportsStreaming to be true")
	}
	if m.CanWrite() {
		t.Fatal("expected CanWrite to be false")
	}
}

func TestPluginRegistryRejectsDuplicateKey(t *testing.T) {
	reg := NewPluginRegistry()
	m := &Manifest{Vendor: "bluetti", Protocol: "v2"}
	if err := reg.Register(m); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	if err := reg.Register(m); err == nil {
		t.Fatal("expected an error registering the same plugin key twice")
	}
}

func TestPluginRegistryGetUnknownReturnsNil(t *testing.T) {
	reg := NewPluginRegistry()
	if reg.Get("acme", "v9") != nil {
		t.Fatal("expected nil for an unregistered vendor/protocol pair")
	}
}

func TestLoadPluginsRegistersBluettiV2(t *testing.T) {
	reg := LoadPlugins()
	m := reg.Get("bluetti", "v2")
	if m == nil {
		t.Fatal("expected bluetti/v2 to be registered")
	}
	profile, err := m.ProfileLoader("EL100V2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Model != "EL100V2" {
		t.Fatalf("got model %q, want EL100V2", profile.Model)
	}
}

func TestLoadPluginsProfileLoaderRejectsUnknownID(t *testing.T) {
	reg := LoadPlugins()
	m := reg.Get("bluetti", "v2")
	if _, err := m.ProfileLoader("NOT-A-PROFILE"); err == nil {
		t.Fatal("expected an error for an unknown profile id")
	}
}

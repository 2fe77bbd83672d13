package runtime

import (
	"fmt"
	"sync"

	"github.com/stationkit/powersdk/device"
)

// Manifest is a vendor+protocol plugin's static descriptor. Exactly
// one Manifest exists per supported pipeline; FromConfig resolves a
// device entry's vendor/protocol pair to its Manifest to obtain a
// ProfileLoader.
type Manifest struct {
	Vendor             string
	Protocol           string
	Version            string
	Description        string
	ProfileIDs         []string
	TransportKeys      []string
	SchemaPackVersion  string
	Capabilities       []string
	ProfileLoader      func(profileID string) (device.Profile, error)
}

// Key is the manifest's canonical lookup key, "<vendor>/<protocol>".
func (m *Manifest) Key() string {
	return m.Vendor + "/" + m.Protocol
}

// CanWrite reports whether the plugin's capability list includes
// "write". This illustrative build is read-only, so no shipped
// manifest sets it.
func (m *Manifest) CanWrite() bool {
	return hasCapability(m.Capabilities, "write")
}

// SupportsStreaming reports whether the plugin's capability list
// includes "stream".
func (m *Manifest) SupportsStreaming() bool {
	return hasCapability(m.Capabilities, "stream")
}

func hasCapability(capabilities []string, want string) bool {
	for _, c := range capabilities {
		if c == want {
			return true
		}
	}
	return false
}

// PluginRegistry is a registry of Manifests keyed by "<vendor>/<protocol>".
type PluginRegistry struct {
	mu        sync.RWMutex
	manifests map[string]*Manifest
}

// NewPluginRegistry returns an empty registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{manifests: make(map[string]*Manifest)}
}

// Register adds m, returning an error if its key is already taken.
func (r *PluginRegistry) Register(m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.manifests[m.Key()]; exists {
		return fmt.Errorf("plugin already registered: %q", m.Key())
	}
	r.manifests[m.Key()] = m
	return nil
}

// Get returns the manifest for vendor+protocol, or nil.
func (r *PluginRegistry) Get(vendor, protocol string) *Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifests[vendor+"/"+protocol]
}

// Keys returns every registered plugin key.
func (r *PluginRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.manifests))
	for k := range r.manifests {
		keys = append(keys, k)
	}
	return keys
}

// LoadPlugins builds the static plugin registry. As in the original
// SDK's Phase 1 loader, manifests are listed explicitly here rather
// than discovered — a future Phase 2 could use Go's plugin package or
// an init-registration side-table, but that indirection has no
// consumer yet.
func LoadPlugins() *PluginRegistry {
	reg := NewPluginRegistry()
	if err := reg.Register(bluettiV2Manifest()); err != nil {
		panic(err)
	}
	return reg
}

func bluettiV2Manifest() *Manifest {
	return &Manifest{
		Vendor:            "bluetti",
		Protocol:          "v2",
		Version:           "1.0.0",
		Description:       "Elite-series V2 Modbus-over-MQTT pipeline",
		ProfileIDs:        []string{device.BuiltinProfile.TypeID, device.BuiltinProfile.Model},
		TransportKeys:     []string{"mqtt"},
		SchemaPackVersion: "1.0.0",
		Capabilities:      []string{"read", "stream"},
		ProfileLoader: func(profileID string) (device.Profile, error) {
			if profileID != device.BuiltinProfile.Model && profileID != device.BuiltinProfile.TypeID {
				return device.Profile{}, fmt.Errorf("unknown profile id %q for bluetti/v2 (known: %s, %s)", profileID, device.BuiltinProfile.Model, device.BuiltinProfile.TypeID)
			}
			return device.BuiltinProfile, nil
		},
	}
}

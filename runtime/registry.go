package runtime

import (
	"fmt"
	"time"

	"github.com/stationkit/powersdk/client"
	"github.com/stationkit/powersdk/config"
	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/transport"
)

// DeviceSummary is resolved pipeline info for one device, used by
// --dry-run — no transport connection, no schema parsing.
type DeviceSummary struct {
	DeviceID          string
	Vendor            string
	Protocol          string
	ProfileID         string
	TransportKey      string
	PollInterval      time.Duration
	CanWrite          bool
	SupportsStreaming bool
	Mode              string
	Sink              string
	PipelineName      string
	Model             string
}

// RuntimeRegistry manages N DeviceRuntime instances built from a
// config file.
type RuntimeRegistry struct {
	runtimes map[string]*DeviceRuntime
	order    []string
}

// FromConfig loads path, resolves every device entry against
// pluginRegistry (LoadPlugins() if nil), and builds one DeviceRuntime
// per entry. A failure building any single device aborts the whole
// call — callers that want partial startup should catch the error and
// retry with a trimmed config.
func FromConfig(path string, pluginRegistry *PluginRegistry) (*RuntimeRegistry, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	reg := pluginRegistry
	if reg == nil {
		reg = LoadPlugins()
	}

	runtimes := make(map[string]*DeviceRuntime, len(cfg.Devices))
	order := make([]string, 0, len(cfg.Devices))

	for _, entry := range cfg.Devices {
		resolved := config.Resolve(cfg, entry)
		dr, err := buildDeviceRuntime(resolved, entry, reg)
		if err != nil {
			return nil, errs.NewConfigError(fmt.Sprintf("failed to build client for device %q", resolved.ID), err)
		}
		runtimes[resolved.ID] = dr
		order = append(order, resolved.ID)
	}

	return &RuntimeRegistry{runtimes: runtimes, order: order}, nil
}

func buildDeviceRuntime(resolved config.ResolvedDevice, entry config.DeviceEntry, reg *PluginRegistry) (*DeviceRuntime, error) {
	manifest := reg.Get(resolved.Vendor, resolved.Protocol)
	if manifest == nil {
		return nil, fmt.Errorf("no plugin registered for vendor=%q protocol=%q (known: %v)", resolved.Vendor, resolved.Protocol, reg.Keys())
	}

	profile, err := manifest.ProfileLoader(resolved.ProfileID)
	if err != nil {
		return nil, err
	}

	tr, err := transport.Create(resolved.TransportKey, resolved.TransportOpts)
	if err != nil {
		return nil, err
	}

	deviceAddress, err := deviceAddressFromOptions(entry.Options)
	if err != nil {
		return nil, err
	}

	c := client.New(tr, profile, deviceAddress)

	pollInterval := resolved.PollInterval
	if pollInterval <= 0 {
		pollInterval = 30
	}

	return &DeviceRuntime{
		DeviceID:     resolved.ID,
		Client:       c,
		Vendor:       resolved.Vendor,
		Protocol:     resolved.Protocol,
		ProfileID:    resolved.ProfileID,
		TransportKey: resolved.TransportKey,
		PollInterval: time.Duration(pollInterval * float64(time.Second)),
		SinkName:     resolved.Sink,
		PipelineName: resolved.PipelineName,
		Mode:         resolved.Mode,
	}, nil
}

func deviceAddressFromOptions(options map[string]interface{}) (byte, error) {
	raw, ok := options["device_address"]
	if !ok {
		return 1, nil
	}
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return 0, fmt.Errorf("options.device_address must be an integer, got %T", raw)
	}
	if n <= 0 || n > 255 {
		return 0, fmt.Errorf("options.device_address must be in [1, 255], got %d", n)
	}
	return byte(n), nil
}

// PollAllOnce polls every registered device once, in registration
// order. Per-device errors are captured in each snapshot, not raised.
func (reg *RuntimeRegistry) PollAllOnce(connect, disconnect bool) []DeviceSnapshot {
	snapshots := make([]DeviceSnapshot, 0, len(reg.order))
	for _, id := range reg.order {
		snapshots = append(snapshots, reg.runtimes[id].PollOnce(connect, disconnect))
	}
	return snapshots
}

// DryRun returns resolved pipeline info per device — no I/O, no
// transport connections. pluginRegistry is consulted for
// can_write/supports_streaming; LoadPlugins() is used if nil.
func (reg *RuntimeRegistry) DryRun(pluginRegistry *PluginRegistry) []DeviceSummary {
	plugins := pluginRegistry
	if plugins == nil {
		plugins = LoadPlugins()
	}

	summaries := make([]DeviceSummary, 0, len(reg.order))
	for _, id := range reg.order {
		rt := reg.runtimes[id]
		manifest := plugins.Get(rt.Vendor, rt.Protocol)
		summary := DeviceSummary{
			DeviceID:     rt.DeviceID,
			Vendor:       rt.Vendor,
			Protocol:     rt.Protocol,
			ProfileID:    rt.ProfileID,
			TransportKey: rt.TransportKey,
			PollInterval: rt.PollInterval,
			Mode:         rt.Mode,
			Sink:         rt.SinkName,
			PipelineName: rt.PipelineName,
			Model:        rt.Client.Profile().Model,
		}
		if manifest != nil {
			summary.CanWrite = manifest.CanWrite()
			summary.SupportsStreaming = manifest.SupportsStreaming()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Add registers rt directly, bypassing FromConfig's YAML/plugin
// resolution. Used by callers (and tests) that already hold a fully
// built DeviceRuntime. Returns an error if rt.DeviceID is already
// registered.
func (reg *RuntimeRegistry) Add(rt *DeviceRuntime) error {
	if reg.runtimes == nil {
		reg.runtimes = make(map[string]*DeviceRuntime)
	}
	if _, exists := reg.runtimes[rt.DeviceID]; exists {
		return fmt.Errorf("device %q already registered", rt.DeviceID)
	}
	reg.runtimes[rt.DeviceID] = rt
	reg.order = append(reg.order, rt.DeviceID)
	return nil
}

// Get returns the DeviceRuntime for id, or nil.
func (reg *RuntimeRegistry) Get(id string) *DeviceRuntime {
	return reg.runtimes[id]
}

// Runtimes returns every DeviceRuntime in registration order.
func (reg *RuntimeRegistry) Runtimes() []*DeviceRuntime {
	out := make([]*DeviceRuntime, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.runtimes[id])
	}
	return out
}

// Len returns the number of registered devices.
func (reg *RuntimeRegistry) Len() int {
	return len(reg.runtimes)
}

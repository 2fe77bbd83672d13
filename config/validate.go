package config

import (
	"fmt"

	"github.com/stationkit/powersdk/errs"
)

// Validate checks structural and cross-reference invariants that a
// bare YAML decode cannot express: unique device ids, required
// per-entry fields, vendor/protocol/transport.key resolvability
// (entry > pipeline > defaults), pipeline references, and sink
// acyclicity (spec §6.3).
func Validate(cfg *Config) error {
	if cfg.Version < 1 {
		return errs.NewConfigError(fmt.Sprintf("invalid config version: %d", cfg.Version), nil)
	}
	if len(cfg.Devices) == 0 {
		return errs.NewConfigError("'devices' must be a non-empty list", nil)
	}

	seenIDs := make(map[string]bool, len(cfg.Devices))
	for i, entry := range cfg.Devices {
		if err := validateEntry(cfg, i, entry, seenIDs); err != nil {
			return err
		}
	}

	if err := validateSinks(cfg.Sinks); err != nil {
		return err
	}
	return nil
}

func validateEntry(cfg *Config, idx int, entry DeviceEntry, seenIDs map[string]bool) error {
	path := fmt.Sprintf("devices[%d]", idx)

	if entry.ID == "" {
		return errs.NewConfigError(path+".id is required", nil)
	}
	if seenIDs[entry.ID] {
		return errs.NewConfigError(fmt.Sprintf("duplicate device id: %q", entry.ID), nil)
	}
	seenIDs[entry.ID] = true

	if entry.ProfileID == "" {
		return errs.NewConfigError(path+".profile_id is required", nil)
	}

	var pipeline Pipeline
	hasPipeline := false
	if entry.Pipeline != "" {
		p, ok := cfg.Pipelines[entry.Pipeline]
		if !ok {
			return errs.NewConfigError(fmt.Sprintf("%s: pipeline %q not found in 'pipelines' section", path, entry.Pipeline), nil)
		}
		pipeline = p
		hasPipeline = true
	}

	if resolveVendor(entry, pipeline, hasPipeline, cfg.Defaults) == "" {
		return errs.NewConfigError(path+": 'vendor' is required (set in entry, defaults.vendor, or pipeline template)", nil)
	}
	if resolveProtocol(entry, pipeline, hasPipeline, cfg.Defaults) == "" {
		return errs.NewConfigError(path+": 'protocol' is required (set in entry, defaults.protocol, or pipeline template)", nil)
	}
	if resolveTransportKey(entry, pipeline, cfg.Defaults) == "" {
		return errs.NewConfigError(path+": 'transport.key' is required (set in entry.transport.key, defaults.transport.key, or pipeline template)", nil)
	}

	if entry.Mode != "" && entry.Mode != "pull" && entry.Mode != "push" {
		return errs.NewConfigError(fmt.Sprintf("%s.mode must be 'pull' or 'push', got %q", path, entry.Mode), nil)
	}

	return nil
}

func resolveVendor(entry DeviceEntry, pipeline Pipeline, hasPipeline bool, defaults Defaults) string {
	if entry.Vendor != "" {
		return entry.Vendor
	}
	if hasPipeline && pipeline.Vendor != "" {
		return pipeline.Vendor
	}
	return defaults.Vendor
}

func resolveProtocol(entry DeviceEntry, pipeline Pipeline, hasPipeline bool, defaults Defaults) string {
	if entry.Protocol != "" {
		return entry.Protocol
	}
	if hasPipeline && pipeline.Protocol != "" {
		return pipeline.Protocol
	}
	return defaults.Protocol
}

func resolveTransportKey(entry DeviceEntry, pipeline Pipeline, defaults Defaults) string {
	if entry.Transport.Key != "" {
		return entry.Transport.Key
	}
	if pipeline.Transport != "" {
		return pipeline.Transport
	}
	return defaults.Transport.Key
}

// validateSinks rejects composite sinks that reference an unknown
// sink name or that participate in a reference cycle.
func validateSinks(sinks map[string]SinkConfig) error {
	for name, s := range sinks {
		if s.Type != "composite" {
			continue
		}
		for _, ref := range s.Refs {
			if _, ok := sinks[ref]; !ok {
				return errs.NewConfigError(fmt.Sprintf("sink %q references unknown sink %q", name, ref), nil)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(sinks))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return errs.NewConfigError(fmt.Sprintf("sink %q participates in a composite reference cycle", name), nil)
		}
		state[name] = visiting
		for _, ref := range sinks[name].Refs {
			if err := visit(ref); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for name := range sinks {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

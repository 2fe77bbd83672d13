package config

// ResolvedDevice is a DeviceEntry after vendor/protocol/transport
// resolution against its pipeline template and the config's
// defaults — everything RuntimeRegistry.FromConfig needs to build one
// Client without re-deriving the resolution order itself.
type ResolvedDevice struct {
	ID            string
	ProfileID     string
	Vendor        string
	Protocol      string
	TransportKey  string
	TransportOpts map[string]interface{}
	PollInterval  float64
	Mode          string
	Sink          string
	PipelineName  string
}

// Resolve computes entry's effective vendor/protocol/transport,
// consulting cfg.Pipelines[entry.Pipeline] and cfg.Defaults in that
// order (entry itself always wins). Callers must have already run
// Validate(cfg) so every required field is guaranteed resolvable.
func Resolve(cfg *Config, entry DeviceEntry) ResolvedDevice {
	var pipeline Pipeline
	if entry.Pipeline != "" {
		pipeline = cfg.Pipelines[entry.Pipeline]
	}

	mode := entry.Mode
	if mode == "" {
		mode = "pull"
	}

	pollInterval := entry.PollInterval
	if pollInterval == 0 {
		pollInterval = cfg.Defaults.PollInterval
	}

	return ResolvedDevice{
		ID:            entry.ID,
		ProfileID:     entry.ProfileID,
		Vendor:        resolveVendor(entry, pipeline, entry.Pipeline != "", cfg.Defaults),
		Protocol:      resolveProtocol(entry, pipeline, entry.Pipeline != "", cfg.Defaults),
		TransportKey:  resolveTransportKey(entry, pipeline, cfg.Defaults),
		TransportOpts: mergeTransportOpts(cfg.Defaults.Transport.Opts, entry.Transport.Opts),
		PollInterval:  pollInterval,
		Mode:          mode,
		Sink:          entry.Sink,
		PipelineName:  entry.Pipeline,
	}
}

// mergeTransportOpts layers entry opts over default opts, entry
// values winning on key collision.
func mergeTransportOpts(defaultOpts, entryOpts map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaultOpts)+len(entryOpts))
	for k, v := range defaultOpts {
		merged[k] = v
	}
	for k, v := range entryOpts {
		merged[k] = v
	}
	return merged
}

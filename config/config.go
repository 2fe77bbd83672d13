// Package config loads and validates the runtime YAML configuration
// that drives RuntimeRegistry.FromConfig: device entries, pipeline
// templates, sink declarations, and defaults, with recursive ${VAR}
// environment expansion (spec §4.8, §6.3).
package config

import (
	"os"
	"regexp"

	"github.com/stationkit/powersdk/errs"
	"gopkg.in/yaml.v3"
)

// TransportConfig names a transport factory key plus its opts, as it
// can appear under defaults, a device entry, or (key only) a
// pipeline template.
type TransportConfig struct {
	Key  string                 `yaml:"key"`
	Opts map[string]interface{} `yaml:"opts"`
}

// Defaults holds the config's top-level fallback values, consulted
// when an entry omits vendor/protocol/poll_interval/transport.
type Defaults struct {
	Vendor       string          `yaml:"vendor"`
	Protocol     string          `yaml:"protocol"`
	PollInterval float64         `yaml:"poll_interval"`
	Transport    TransportConfig `yaml:"transport"`
}

// Pipeline is a named template a device entry can reference to
// supply vendor/protocol/transport key without repeating them.
type Pipeline struct {
	Vendor    string `yaml:"vendor"`
	Protocol  string `yaml:"protocol"`
	Transport string `yaml:"transport"`
}

// DeviceEntry is one element of the config's devices list.
type DeviceEntry struct {
	ID           string                 `yaml:"id"`
	ProfileID    string                 `yaml:"profile_id"`
	Vendor       string                 `yaml:"vendor"`
	Protocol     string                 `yaml:"protocol"`
	Transport    TransportConfig        `yaml:"transport"`
	Pipeline     string                 `yaml:"pipeline"`
	Options      map[string]interface{} `yaml:"options"`
	PollInterval float64                `yaml:"poll_interval"`
	Mode         string                 `yaml:"mode"`
	Sink         string                 `yaml:"sink"`
}

// SinkConfig declares one named sink. Refs is populated for
// type == "composite" and names other sink keys to fan out to.
type SinkConfig struct {
	Type string                 `yaml:"type"`
	Opts map[string]interface{} `yaml:"opts"`
	Refs []string               `yaml:"refs"`
}

// Config is the fully-parsed, env-expanded, but not yet
// cross-validated configuration file.
type Config struct {
	Version   int                    `yaml:"version"`
	Defaults  Defaults               `yaml:"defaults"`
	Devices   []DeviceEntry          `yaml:"devices"`
	Pipelines map[string]Pipeline    `yaml:"pipelines"`
	Sinks     map[string]SinkConfig  `yaml:"sinks"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnvString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// expandEnv recursively rewrites every string value reachable under
// root via ${VAR} substitution from the process environment. It
// operates on the generic map/slice/scalar shape yaml.v3 decodes into
// interface{}, before the second typed decode pass.
func expandEnv(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return expandEnvString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = expandEnv(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = expandEnv(vv)
		}
		return out
	default:
		return value
	}
}

// Load reads path, expands ${VAR} references recursively, and
// validates the result. It never mutates the environment.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewConfigError("reading config file", err)
	}

	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, errs.NewConfigError("parsing YAML", err)
	}
	if generic == nil {
		return nil, errs.NewConfigError("empty config file", nil)
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return nil, errs.NewConfigError("config root must be a mapping", nil)
	}

	expanded := expandEnv(generic)

	expandedYAML, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, errs.NewConfigError("re-encoding expanded config", err)
	}

	cfg := &Config{Version: 1}
	if err := yaml.Unmarshal(expandedYAML, cfg); err != nil {
		return nil, errs.NewConfigError("decoding config", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

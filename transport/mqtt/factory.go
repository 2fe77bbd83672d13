package mqtt

import (
	"time"

	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/transport"
)

func init() {
	transport.RegisterFactory("mqtt", build)
}

// build constructs a Transport from a config-file transport.opts map.
// broker and device_serial are required; port falls back to 8883, and
// keep_alive_s/connect_wait_s fall back to withDefaults' values.
func build(opts map[string]interface{}) (transport.Transport, error) {
	broker, ok := optString(opts, "broker")
	if !ok || broker == "" {
		return nil, errs.NewConfigError("mqtt transport requires a non-empty 'broker' opt", nil)
	}
	serial, ok := optString(opts, "device_serial")
	if !ok || serial == "" {
		return nil, errs.NewConfigError("mqtt transport requires a non-empty 'device_serial' opt", nil)
	}

	cfg := Config{
		Broker:       broker,
		DeviceSerial: serial,
	}
	if port, ok := optInt(opts, "port"); ok {
		cfg.Port = port
	} else {
		cfg.Port = 8883
	}
	if keepAlive, ok := optInt(opts, "keep_alive_s"); ok {
		cfg.KeepAlive = time.Duration(keepAlive) * time.Second
	}
	if connectWait, ok := optInt(opts, "connect_wait_s"); ok {
		cfg.ConnectWait = time.Duration(connectWait) * time.Second
	}

	return New(cfg), nil
}

func optString(opts map[string]interface{}, key string) (string, bool) {
	v, ok := opts[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func optInt(opts map[string]interface{}, key string) (int, bool) {
	v, ok := opts[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

package mqtt

import "testing"

func TestBuildRequiresBroker(t *testing.T) {
	_, err := build(map[string]interface{}{"device_serial": "SN1"})
	if err == nil {
		t.Fatal("expected an error for a missing broker opt")
	}
}

func TestBuildRequiresDeviceSerial(t *testing.T) {
	_, err := build(map[string]interface{}{"broker": "iot.example.com"})
	if err == nil {
		t.Fatal("expected an error for a missing device_serial opt")
	}
}

func TestBuildAppliesDefaultsAndOverrides(t *testing.T) {
	tr, err := build(map[string]interface{}{
		"broker":        "iot.example.com",
		"device_serial": "SN1",
		"port":          float64(18760),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transport := tr.(*Transport)
	if transport.cfg.Port != 18760 {
		t.Fatalf("got port %d, want 18760", transport.cfg.Port)
	}
	if transport.cfg.KeepAlive == 0 {
		t.Fatal("expected a default keepalive to be applied")
	}
}

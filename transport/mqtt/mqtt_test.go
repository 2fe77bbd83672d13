package mqtt

import "testing"

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Broker: "iot.example.com", Port: 18760, DeviceSerial: "SN123"}.withDefaults()
	if cfg.KeepAlive == 0 {
		t.Fatal("expected a non-zero default keepalive")
	}
	if cfg.ConnectWait == 0 {
		t.Fatal("expected a non-zero default connect wait")
	}
}

func TestNewDerivesTopicsFromDeviceSerial(t *testing.T) {
	tr := New(Config{Broker: "iot.example.com", Port: 18760, DeviceSerial: "SN123"})
	if tr.subscribeTopic != "PUB/SN123" {
		t.Fatalf("got %q, want PUB/SN123", tr.subscribeTopic)
	}
	if tr.publishTopic != "SUB/SN123" {
		t.Fatalf("got %q, want SUB/SN123", tr.publishTopic)
	}
	if tr.IsConnected() {
		t.Fatal("a freshly constructed transport must not be connected")
	}
}

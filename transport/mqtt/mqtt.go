// Package mqtt implements transport.Transport over a mutually
// authenticated MQTT channel: one device per client, single in-flight
// request, topic pair derived from the device serial number.
package mqtt

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	mqttpaho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/stationkit/powersdk/clog"
	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/modbus"
)

var log = clog.NewLogger("mqtt: ")

// Config carries the broker address and the device-scoped identity
// used to derive topic names and the client id.
type Config struct {
	Broker       string
	Port         int
	DeviceSerial string
	TLSConfig    *tls.Config // nil keeps TLS on with the default tls.Config; the broker URL is always ssl://
	KeepAlive    time.Duration
	ConnectWait  time.Duration
}

func (c Config) withDefaults() Config {
	if c.KeepAlive == 0 {
		c.KeepAlive = 60 * time.Second
	}
	if c.ConnectWait == 0 {
		c.ConnectWait = 10 * time.Second
	}
	return c
}

// Transport is a transport.PushCapable implementation over MQTT, one
// instance per device. It serializes requests with an internal mutex
// (spec §5 "Transport threading": only one in-flight request per
// client). Responses carry no correlation id: the first CRC-valid
// frame that arrives while a SendFrame is waiting is taken as its
// response, and frames arriving while none is waiting go to the push
// callback.
type Transport struct {
	cfg Config

	client mqttpaho.Client

	requestMu sync.Mutex

	responseMu   sync.Mutex
	waitingID    string
	responseCh   chan []byte
	onData       func(data []byte)
	onDataMu     sync.RWMutex

	connectedMu sync.RWMutex
	connected   bool

	subscribeTopic string
	publishTopic   string
}

// New constructs a Transport for the given config. The returned value
// is not yet connected; call Connect.
func New(cfg Config) *Transport {
	cfg = cfg.withDefaults()
	return &Transport{
		cfg:            cfg,
		subscribeTopic: fmt.Sprintf("PUB/%s", cfg.DeviceSerial),
		publishTopic:   fmt.Sprintf("SUB/%s", cfg.DeviceSerial),
	}
}

// Connect dials the broker, subscribes to the device's response
// topic, and blocks until the connection handshake completes or
// ConnectWait elapses.
func (t *Transport) Connect() error {
	if t.IsConnected() {
		return nil
	}

	opts := mqttpaho.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", t.cfg.Broker, t.cfg.Port)).
		SetClientID(fmt.Sprintf("powersdk_%s_%s", t.cfg.DeviceSerial, uuid.NewString())).
		SetKeepAlive(t.cfg.KeepAlive).
		SetAutoReconnect(false).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost)
	if t.cfg.TLSConfig != nil {
		opts.SetTLSConfig(t.cfg.TLSConfig)
	}

	t.client = mqttpaho.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(t.cfg.ConnectWait) {
		return errs.NewTransportError("connect", fmt.Errorf("timed out after %s", t.cfg.ConnectWait))
	}
	if err := token.Error(); err != nil {
		return errs.NewTransportError("connect", err)
	}

	subToken := t.client.Subscribe(t.subscribeTopic, 1, t.onMessage)
	if !subToken.WaitTimeout(t.cfg.ConnectWait) {
		return errs.NewTransportError("subscribe", fmt.Errorf("timed out subscribing to %s", t.subscribeTopic))
	}
	if err := subToken.Error(); err != nil {
		return errs.NewTransportError("subscribe", err)
	}

	t.setConnected(true)
	log.Info("connected to %s:%d, subscribed to %s", t.cfg.Broker, t.cfg.Port, t.subscribeTopic)
	return nil
}

// Disconnect tears down the MQTT session. Idempotent.
func (t *Transport) Disconnect() error {
	if !t.IsConnected() {
		return nil
	}
	if t.client != nil {
		t.client.Unsubscribe(t.subscribeTopic)
		t.client.Disconnect(250)
	}
	t.setConnected(false)
	log.Info("disconnected")
	return nil
}

// IsConnected reports the current session state.
func (t *Transport) IsConnected() bool {
	t.connectedMu.RLock()
	defer t.connectedMu.RUnlock()
	return t.connected
}

func (t *Transport) setConnected(v bool) {
	t.connectedMu.Lock()
	t.connected = v
	t.connectedMu.Unlock()
}

// SendFrame publishes request and blocks for the matching response,
// or fails with a TransportError on timeout or publish failure. Only
// one SendFrame may be in flight per Transport at a time.
func (t *Transport) SendFrame(request []byte, timeout time.Duration) ([]byte, error) {
	t.requestMu.Lock()
	defer t.requestMu.Unlock()

	if !t.IsConnected() {
		return nil, errs.NewTransportError("send_frame", fmt.Errorf("not connected"))
	}

	respCh := make(chan []byte, 1)
	requestID := uuid.NewString()
	t.responseMu.Lock()
	t.waitingID = requestID
	t.responseCh = respCh
	t.responseMu.Unlock()
	defer func() {
		t.responseMu.Lock()
		t.waitingID = ""
		t.responseCh = nil
		t.responseMu.Unlock()
	}()

	token := t.client.Publish(t.publishTopic, 1, false, request)
	if !token.WaitTimeout(timeout) {
		return nil, errs.NewTransportError("send_frame", fmt.Errorf("publish timed out after %s", timeout))
	}
	if err := token.Error(); err != nil {
		return nil, errs.NewTransportError("send_frame", err)
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-time.After(timeout):
		return nil, errs.NewTransportError("send_frame", fmt.Errorf("response timeout after %s", timeout))
	}
}

// SetOnData registers a push callback invoked for every inbound
// message that arrives while no SendFrame is waiting on a response.
// cb may be called from the paho network goroutine; it must be
// thread-safe.
func (t *Transport) SetOnData(cb func(data []byte)) {
	t.onDataMu.Lock()
	t.onData = cb
	t.onDataMu.Unlock()
}

func (t *Transport) onConnect(mqttpaho.Client) {
	t.setConnected(true)
}

func (t *Transport) onConnectionLost(_ mqttpaho.Client, err error) {
	log.Warn("connection lost: %v", err)
	t.setConnected(false)
}

// onMessage runs on paho's network goroutine. It validates the frame
// shape and CRC before deciding whether it answers an in-flight
// SendFrame or should be handed to the push callback.
func (t *Transport) onMessage(_ mqttpaho.Client, msg mqttpaho.Message) {
	payload := msg.Payload()
	if len(payload) < 5 {
		log.Warn("ignoring short response (%d bytes)", len(payload))
		return
	}
	function := payload[1]
	if function != 0x03 && function != 0x83 {
		log.Warn("ignoring response with unexpected function code 0x%02X", function)
		return
	}
	if !modbus.ValidateCRC(payload) {
		log.Warn("ignoring response with invalid CRC")
		return
	}

	t.responseMu.Lock()
	waiting := t.waitingID != ""
	ch := t.responseCh
	t.responseMu.Unlock()

	if waiting && ch != nil {
		select {
		case ch <- payload:
		default:
			log.Warn("dropping late response: receiver not ready")
		}
		return
	}

	t.onDataMu.RLock()
	cb := t.onData
	t.onDataMu.RUnlock()
	if cb != nil {
		cb(payload)
	}
}

// Package client implements the high-level orchestrator that wires a
// transport, the Modbus framing layer, the schema parser, and the
// device-state model behind one synchronous API, plus an async-style
// facade serializing concurrent access over it (spec §4.6).
package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/stationkit/powersdk/clog"
	"github.com/stationkit/powersdk/device"
	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/modbus"
	"github.com/stationkit/powersdk/parser"
	"github.com/stationkit/powersdk/registry"
	"github.com/stationkit/powersdk/schema"
	"github.com/stationkit/powersdk/transport"
)

var log = clog.NewLogger("client: ")

const defaultFrameTimeout = 5 * time.Second

// Client orchestrates transport → Modbus → parser → device-state for
// a single device instance. A Client is not internally synchronized:
// its contract is single-threaded use per instance (spec §4.6's
// scheduling note); Facade is what enforces that from concurrent
// callers.
type Client struct {
	transport      transport.Transport
	profile        device.Profile
	deviceAddress  byte
	protocolVersion int
	retryPolicy    RetryPolicy

	parser   *parser.Parser
	registry *registry.SchemaRegistry
	state    *device.State
}

// Option customizes New's default dependencies.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retryPolicy = p }
}

// WithSchemaRegistry injects a pre-populated registry instead of
// registry.NewWithBuiltins().
func WithSchemaRegistry(r *registry.SchemaRegistry) Option {
	return func(c *Client) { c.registry = r }
}

// WithProtocolVersion sets the protocol version used for schema
// min-version gating and stamped into every ParsedRecord.
func WithProtocolVersion(v int) Option {
	return func(c *Client) { c.protocolVersion = v }
}

// New builds a Client over t for profile p, auto-registering every
// schema the profile's groups reference. Missing schemas are logged,
// not fatal (spec §4.6).
func New(t transport.Transport, p device.Profile, deviceAddress byte, opts ...Option) *Client {
	c := &Client{
		transport:       t,
		profile:         p,
		deviceAddress:   deviceAddress,
		protocolVersion: 2000,
		retryPolicy:     DefaultRetryPolicy(),
		parser:          parser.New(),
		registry:        registry.NewWithBuiltins(),
		state:           device.NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.autoRegisterSchemas()
	return c
}

func (c *Client) autoRegisterSchemas() {
	blockIDs := c.profile.BlockIDs()
	if len(blockIDs) == 0 {
		log.Warn("device profile %q has no blocks defined", c.profile.Model)
		return
	}

	resolved, err := c.registry.ResolveBlocks(blockIDs, false)
	if err != nil {
		log.Error("failed to resolve schemas: %v", err)
		return
	}

	found := make(map[int]bool, len(resolved))
	for _, s := range resolved {
		c.parser.RegisterSchema(s)
		found[s.BlockID] = true
		log.Debug("registered schema: block %d (%s)", s.BlockID, s.Name)
	}

	var missing []int
	for _, id := range blockIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		log.Warn("schemas not found for blocks: %v; these blocks cannot be parsed", missing)
	}
}

// withRetry runs fn, retrying on TransportError per c.retryPolicy.
// ParserError and ProtocolError propagate immediately (spec §4.6).
func (c *Client) withRetry(operation string, fn func() error) error {
	var lastErr error
	delays := append([]time.Duration{0}, retryDelays(c.retryPolicy)...)

	for attempt, delay := range delays {
		if delay > 0 {
			log.Info("%s: retry attempt %d/%d after %s delay", operation, attempt, c.retryPolicy.MaxAttempts, delay)
			time.Sleep(delay)
		}

		err := fn()
		if err == nil {
			return nil
		}

		var transportErr *errs.TransportError
		if !errors.As(err, &transportErr) {
			return err
		}
		lastErr = err
		log.Warn("%s: transport error on attempt %d: %v", operation, attempt+1, err)
	}

	log.Error("%s: failed after %d attempts", operation, c.retryPolicy.MaxAttempts)
	return lastErr
}

// retryDelays returns the sleep durations before each retry attempt
// after the first (so len(retryDelays) == MaxAttempts-1).
func retryDelays(p RetryPolicy) []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for k := 0; k < p.MaxAttempts-1; k++ {
		delays = append(delays, p.delay(k))
	}
	return delays
}

// Connect opens the transport, retrying transient failures.
func (c *Client) Connect() error {
	log.Info("connecting to %s...", c.profile.Model)
	err := c.withRetry("connect", func() error {
		if err := c.transport.Connect(); err != nil {
			return errs.NewTransportError("connect", err)
		}
		if !c.transport.IsConnected() {
			return errs.NewTransportError("connect", fmt.Errorf("transport reports not connected"))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("connected to %s", c.profile.Model)
	return nil
}

// Disconnect closes the transport. Not retried.
func (c *Client) Disconnect() error {
	log.Info("disconnecting...")
	return c.transport.Disconnect()
}

// ReadBlock performs the full transport → Modbus → parser → device
// pipeline for a single block id (spec §4.6). A zero registerCount
// means "derive from the registered schema's min_length".
func (c *Client) ReadBlock(blockID int, registerCount int) (*schema.ParsedRecord, error) {
	if registerCount == 0 {
		s := c.parser.Schema(blockID)
		if s == nil {
			return nil, errs.NewParserError(blockID, fmt.Errorf("no schema registered and register_count not specified"))
		}
		registerCount = (s.MinLength + 1) / 2
	}

	log.Debug("reading block %d (%d registers = %d bytes)", blockID, registerCount, registerCount*2)

	request := modbus.BuildRequest(c.deviceAddress, uint16(blockID), uint16(registerCount))

	var responseFrame []byte
	err := c.withRetry(fmt.Sprintf("read block %d", blockID), func() error {
		frame, sendErr := c.transport.SendFrame(request, defaultFrameTimeout)
		if sendErr != nil {
			return errs.NewTransportError("send_frame", sendErr)
		}
		responseFrame = frame
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := modbus.ParseResponse(responseFrame)
	if err != nil {
		return nil, err
	}
	normalized := modbus.Normalize(resp)

	record, err := c.parser.Parse(blockID, normalized, c.protocolVersion)
	if err != nil {
		return nil, err
	}

	if record.Validation != nil {
		for _, w := range record.Validation.Warnings {
			log.Warn("block %d: %s", blockID, w)
		}
	}

	device.UpdateFromBlock(c.state, record)

	log.Info("block %d (%s) parsed successfully: %d fields", blockID, record.SchemaName, len(record.Values))
	return record, nil
}

// ReadGroup reads every block id in group, in declaration order. When
// partial_ok is false, the first error aborts and is returned;
// otherwise failed blocks are skipped and the successful records
// returned.
func (c *Client) ReadGroup(group device.BlockGroup, partialOK bool) ([]*schema.ParsedRecord, error) {
	def, ok := c.profile.Groups[group]
	if !ok {
		return nil, errs.NewDeviceError(fmt.Sprintf("block group %q not supported by this device", group))
	}

	records := make([]*schema.ParsedRecord, 0, len(def.Blocks))
	for _, blockID := range def.Blocks {
		record, err := c.ReadBlock(blockID, 0)
		if err != nil {
			if !partialOK {
				return nil, err
			}
			log.Warn("read_group %s: block %d failed: %v", group, blockID, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadGroupResult is the structured result of ReadGroupEx: successful
// records, per-block errors, and two derived flags.
type ReadGroupResult struct {
	Blocks  []*schema.ParsedRecord
	Errors  map[int]error
	Success bool
	Partial bool
}

// ReadGroupEx behaves like ReadGroup but never discards an error: it
// always returns a ReadGroupResult with success = len(errors) == 0
// and partial = !success && len(blocks) != 0. When partialOK is
// false, the first failing block still aborts the whole call.
func (c *Client) ReadGroupEx(group device.BlockGroup, partialOK bool) (*ReadGroupResult, error) {
	def, ok := c.profile.Groups[group]
	if !ok {
		return nil, errs.NewDeviceError(fmt.Sprintf("block group %q not supported by this device", group))
	}

	result := &ReadGroupResult{Errors: make(map[int]error)}
	for _, blockID := range def.Blocks {
		record, err := c.ReadBlock(blockID, 0)
		if err != nil {
			if !partialOK {
				return nil, err
			}
			result.Errors[blockID] = err
			continue
		}
		result.Blocks = append(result.Blocks, record)
	}
	result.Success = len(result.Errors) == 0
	result.Partial = !result.Success && len(result.Blocks) != 0
	return result, nil
}

// StreamGroup returns a channel yielding each block's ParsedRecord as
// it is read, closing the channel once the group is exhausted. The
// lazy, generator-style equivalent of ReadGroup (spec §4.6).
func (c *Client) StreamGroup(group device.BlockGroup, partialOK bool) (<-chan *schema.ParsedRecord, error) {
	def, ok := c.profile.Groups[group]
	if !ok {
		return nil, errs.NewDeviceError(fmt.Sprintf("block group %q not supported by this device", group))
	}

	ch := make(chan *schema.ParsedRecord)
	go func() {
		defer close(ch)
		for _, blockID := range def.Blocks {
			record, err := c.ReadBlock(blockID, 0)
			if err != nil {
				if !partialOK {
					return
				}
				log.Warn("stream_group %s: block %d failed: %v", group, blockID, err)
				continue
			}
			ch <- record
		}
	}()
	return ch, nil
}

// SetOnData registers cb as the callback invoked whenever the
// underlying transport delivers unsolicited data, for push-mode
// devices. Reports false without registering anything if the
// transport does not implement transport.PushCapable.
func (c *Client) SetOnData(cb func(data []byte)) bool {
	pc, ok := c.transport.(transport.PushCapable)
	if !ok {
		return false
	}
	pc.SetOnData(cb)
	return true
}

// GetDeviceState returns the merged flat device-state view.
func (c *Client) GetDeviceState() map[string]interface{} {
	return c.state.GetState()
}

// GetGroupState returns the group-scoped device-state view.
func (c *Client) GetGroupState(group device.BlockGroup) map[string]interface{} {
	return c.state.GetGroupState(group)
}

// RegisterSchema registers s with both the client's schema registry
// and its parser.
func (c *Client) RegisterSchema(s *schema.BlockSchema) error {
	if err := c.registry.Register(s); err != nil {
		return err
	}
	c.parser.RegisterSchema(s)
	log.Debug("registered schema: block %d (%s)", s.BlockID, s.Name)
	return nil
}

// GetAvailableGroups returns the device profile's group names.
func (c *Client) GetAvailableGroups() []string {
	return c.profile.AvailableGroups()
}

// Profile returns the device profile this client was built for.
func (c *Client) Profile() device.Profile {
	return c.profile
}

// GetRegisteredSchemas returns block_id -> schema name for every
// schema currently registered in the client's parser.
func (c *Client) GetRegisteredSchemas() map[int]string {
	return c.parser.ListSchemas()
}

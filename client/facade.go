package client

import (
	"sync"

	"github.com/stationkit/powersdk/device"
	"github.com/stationkit/powersdk/schema"
)

// Facade serializes concurrent access to a Client: every exported
// method acquires the same mutex before delegating to the underlying
// Client, whose own contract is single-threaded use per instance
// (spec §4.6's "async mutex" wrapper, rendered here as a plain
// sync.Mutex since Go's blocking calls already yield the runtime
// scheduler — no separate worker-thread hop is needed).
type Facade struct {
	mu     sync.Mutex
	client *Client
}

// NewFacade wraps c.
func NewFacade(c *Client) *Facade {
	return &Facade{client: c}
}

// Enter connects the underlying client, mirroring an async context
// manager's __aenter__: on failure it disconnects before returning
// the original error, rather than leaving a half-open session.
func (f *Facade) Enter() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.client.Connect(); err != nil {
		_ = f.client.Disconnect()
		return err
	}
	return nil
}

// Exit always disconnects, mirroring __aexit__. If the caller is
// already propagating an error (pass it as prior), Exit preserves it
// over any disconnect error.
func (f *Facade) Exit(prior error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.client.Disconnect()
	if prior != nil {
		return prior
	}
	return err
}

func (f *Facade) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.Connect()
}

func (f *Facade) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.Disconnect()
}

func (f *Facade) ReadBlock(blockID int, registerCount int) (*schema.ParsedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.ReadBlock(blockID, registerCount)
}

func (f *Facade) ReadGroup(group device.BlockGroup, partialOK bool) ([]*schema.ParsedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.ReadGroup(group, partialOK)
}

func (f *Facade) ReadGroupEx(group device.BlockGroup, partialOK bool) (*ReadGroupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.ReadGroupEx(group, partialOK)
}

// StreamGroup holds the facade's mutex for the whole lifetime of the
// returned channel's producer goroutine, so a second caller blocks in
// Enter/ReadBlock/etc. until streaming finishes — matching the async
// facade's "all calls are serialized" contract even though this call
// itself hands back a channel immediately.
func (f *Facade) StreamGroup(group device.BlockGroup, partialOK bool) (<-chan *schema.ParsedRecord, error) {
	f.mu.Lock()
	ch, err := f.client.StreamGroup(group, partialOK)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}

	out := make(chan *schema.ParsedRecord)
	go func() {
		defer f.mu.Unlock()
		defer close(out)
		for record := range ch {
			out <- record
		}
	}()
	return out, nil
}

func (f *Facade) GetDeviceState() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.GetDeviceState()
}

func (f *Facade) GetGroupState(group device.BlockGroup) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client.GetGroupState(group)
}

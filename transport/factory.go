package transport

import (
	"fmt"
	"sync"

	"github.com/stationkit/powersdk/errs"
)

// Builder constructs a Transport from a config-file options map
// (spec §6.3's transport.opts). Concrete transports register a
// Builder under a key (e.g. "mqtt") from their own package's init(),
// mirroring registry.RegisterBuiltin — this package cannot import its
// transport/mqtt sub-package without creating an import cycle, since
// transport/mqtt imports this package's Transport interface.
type Builder func(opts map[string]interface{}) (Transport, error)

var (
	factoryMu sync.Mutex
	factory   = make(map[string]Builder)
)

// RegisterFactory makes key available to Create. Calling it twice for
// the same key is a programmer error and panics.
func RegisterFactory(key string, build Builder) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, exists := factory[key]; exists {
		panic(fmt.Sprintf("transport: factory already registered for key %q", key))
	}
	factory[key] = build
}

// Create builds a Transport for key using opts, or a ConfigError
// naming the known keys if key is not registered.
func Create(key string, opts map[string]interface{}) (Transport, error) {
	factoryMu.Lock()
	build, ok := factory[key]
	factoryMu.Unlock()
	if !ok {
		return nil, errs.NewConfigError(fmt.Sprintf("no transport registered for key %q (known: %v)", key, knownKeys()), nil)
	}
	return build(opts)
}

func knownKeys() []string {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	keys := make([]string, 0, len(factory))
	for k := range factory {
		keys = append(keys, k)
	}
	return keys
}

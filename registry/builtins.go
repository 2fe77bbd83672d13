package registry

import (
	"sync"

	"github.com/stationkit/powersdk/schema"
)

var (
	builtinMu      sync.Mutex
	builtinSchemas []*schema.BlockSchema
)

// RegisterBuiltin adds s to the process-wide built-in catalog. Device
// plugin packages call this from an init() function (the same
// database/sql-driver pattern the Go ecosystem uses for build-time
// registration) so that NewWithBuiltins sees every built-in schema
// regardless of import order.
func RegisterBuiltin(s *schema.BlockSchema) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtinSchemas = append(builtinSchemas, s)
}

// builtinCatalog returns a snapshot of the current built-in list.
// NewWithBuiltins copies these into a fresh instance registry; the
// package-level slice itself is never handed out directly.
func builtinCatalog() []*schema.BlockSchema {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	out := make([]*schema.BlockSchema, len(builtinSchemas))
	copy(out, builtinSchemas)
	return out
}

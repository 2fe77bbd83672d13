// Package registry implements the schema catalog: an instance-scoped
// SchemaRegistry seeded from a process-wide built-in catalog, with
// atomic batch registration and structural conflict detection
// (spec §4.4).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stationkit/powersdk/schema"
)

// SchemaRegistry holds block_id -> *schema.BlockSchema. The zero
// value is not usable; construct with New or NewWithBuiltins.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[int]*schema.BlockSchema
}

// New returns an empty registry.
func New() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[int]*schema.BlockSchema)}
}

// NewWithBuiltins returns a fresh registry preloaded with every
// schema in the built-in catalog. Each caller gets its own map; the
// built-in catalog itself is only ever appended to by RegisterBuiltin.
func NewWithBuiltins() *SchemaRegistry {
	r := New()
	for _, s := range builtinCatalog() {
		if err := r.Register(s); err != nil {
			panic(fmt.Sprintf("registry: built-in catalog is internally inconsistent: %v", err))
		}
	}
	return r
}

// Get returns the schema for id, or nil if absent.
func (r *SchemaRegistry) Get(id int) *schema.BlockSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[id]
}

// ListBlocks returns every registered block id, sorted ascending.
func (r *SchemaRegistry) ListBlocks() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResolveBlocks returns the subset of ids present in the registry. In
// strict mode, any missing id fails the whole call.
func (r *SchemaRegistry) ResolveBlocks(ids []int, strict bool) ([]*schema.BlockSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolved := make([]*schema.BlockSchema, 0, len(ids))
	var missing []int
	for _, id := range ids {
		if s, ok := r.schemas[id]; ok {
			resolved = append(resolved, s)
		} else {
			missing = append(missing, id)
		}
	}
	if strict && len(missing) > 0 {
		return nil, fmt.Errorf("registry: missing block id(s) %v", missing)
	}
	return resolved, nil
}

// Register inserts s if block_id is absent, or validates it against
// the existing entry and silently no-ops if identical. A rename or
// any field-level conflict fails.
func (r *SchemaRegistry) Register(s *schema.BlockSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(s)
}

// RegisterMany validates every schema against the current state (and
// against each other) before applying any of them: either all
// registrations land, or none do.
func (r *SchemaRegistry) RegisterMany(schemas []*schema.BlockSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[int]*schema.BlockSchema, len(r.schemas))
	for id, s := range r.schemas {
		staged[id] = s
	}

	var errs []error
	for _, s := range schemas {
		existing, ok := staged[s.BlockID]
		if !ok {
			staged[s.BlockID] = s
			continue
		}
		if err := conflict(existing, s); err != nil {
			errs = append(errs, err)
			continue
		}
		staged[s.BlockID] = s // idempotent re-registration, possibly batch-internal duplicate
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry: batch registration failed with %d error(s): %w", len(errs), joinErrors(errs))
	}
	r.schemas = staged
	return nil
}

func (r *SchemaRegistry) registerLocked(s *schema.BlockSchema) error {
	existing, ok := r.schemas[s.BlockID]
	if !ok {
		r.schemas[s.BlockID] = s
		return nil
	}
	if err := conflict(existing, s); err != nil {
		return err
	}
	r.schemas[s.BlockID] = s
	return nil
}

// conflict returns a descriptive error if new cannot replace existing
// under the same block id, or nil if the registration is an
// idempotent no-op.
func conflict(existing, next *schema.BlockSchema) error {
	if existing.Name != next.Name {
		return fmt.Errorf("registry: block %d rename conflict: %q -> %q", existing.BlockID, existing.Name, next.Name)
	}

	existingFields := fingerprintItems(existing.Items)
	nextFields := fingerprintItems(next.Items)

	for name, existingFp := range existingFields {
		nextFp, ok := nextFields[name]
		if !ok {
			return fmt.Errorf("registry: block %d field %q removed", existing.BlockID, name)
		}
		if existingFp != nextFp {
			return fmt.Errorf("registry: block %d field %q changed: %q -> %q", existing.BlockID, name, existingFp, nextFp)
		}
	}
	for name := range nextFields {
		if _, ok := existingFields[name]; !ok {
			return fmt.Errorf("registry: block %d field %q added", existing.BlockID, name)
		}
	}
	return nil
}

func joinErrors(errs []error) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}

package device

import (
	"fmt"

	"github.com/stationkit/powersdk/clog"
	"github.com/stationkit/powersdk/schema"
)

var log = clog.NewLogger("device: ")

// Mapper copies named values from a ParsedRecord into state under a
// group-scoped attribute prefix ("<group>.<field>"), then touches the
// group's last-update timestamp. Unknown block ids are logged and
// ignored — they do not fail the update (spec §4.7).
type Mapper func(state *State, record *schema.ParsedRecord)

// mappers is keyed by block id, populated by each built-in schema's
// init() alongside its RegisterBuiltin call.
var mappers = map[int]Mapper{}

// RegisterMapper associates a Mapper with blockID.
func RegisterMapper(blockID int, m Mapper) {
	mappers[blockID] = m
}

// UpdateFromBlock dispatches record to its registered Mapper. An
// unmapped block id is logged but does not fail the caller.
func UpdateFromBlock(state *State, record *schema.ParsedRecord) {
	m, ok := mappers[record.BlockID]
	if !ok {
		log.Warn("no mapper registered for block %d (%s)", record.BlockID, record.SchemaName)
		return
	}
	m(state, record)
}

// groupMapper builds a Mapper that copies every value in
// record.Values into state under "<group>.<name>" and touches the
// group's timestamp.
func groupMapper(group BlockGroup) Mapper {
	return func(state *State, record *schema.ParsedRecord) {
		for name, value := range record.Values {
			state.Set(fmt.Sprintf("%s.%s", group, name), value)
		}
		state.TouchGroup(group)
	}
}

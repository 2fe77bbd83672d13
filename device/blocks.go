package device

import (
	"time"

	"github.com/stationkit/powersdk/datatype"
	"github.com/stationkit/powersdk/registry"
	"github.com/stationkit/powersdk/schema"
)

// This file holds four representative built-in block schemas, one
// per schema-framework feature (plain Field, ArrayField, PackedField,
// FieldGroup). They are grounded on the reverse-engineered layouts in
// power_sdk/plugins/bluetti/v2/schemas/block_1300_declarative.py,
// protocol/v2/schema.py's cell_voltages ArrayField example, and
// docs/blocks/block_100_parser_example.py's aging-status bit fields —
// but they are illustrative only, not verified hardware contracts:
// a real plugin ships its own vetted catalog.

func mustField(f schema.Field) *schema.Field {
	built, err := schema.NewField(f)
	if err != nil {
		panic(err)
	}
	return built
}

func mustArrayField(f schema.ArrayField) *schema.ArrayField {
	built, err := schema.NewArrayField(f)
	if err != nil {
		panic(err)
	}
	return built
}

func mustPackedField(baseBits, count, stride, offset int, name string, required bool, description string, subs []schema.SubField) *schema.PackedField {
	built, err := schema.NewPackedField(baseBits, count, stride, offset, name, required, nil, description, subs)
	if err != nil {
		panic(err)
	}
	return built
}

func mustFieldGroup(name string, required bool, description string, members []*schema.Field) *schema.FieldGroup {
	built, err := schema.NewFieldGroup(name, required, nil, description, members)
	if err != nil {
		panic(err)
	}
	return built
}

func mustBlockSchema(blockID int, name, description string, minLength int, items []schema.Item, protocolVersion int, schemaVersion string, strict bool, verificationTag string) *schema.BlockSchema {
	built, err := schema.NewBlockSchema(blockID, name, description, minLength, items, protocolVersion, schemaVersion, strict, verificationTag)
	if err != nil {
		panic(err)
	}
	return built
}

// BlockGridInfo (1300, INV_GRID_INFO) demonstrates plain Field usage:
// required/optional fields, abs and scale transforms.
var BlockGridInfo = mustBlockSchema(
	1300, "INV_GRID_INFO", "Grid input monitoring (voltage, frequency, power)", 32,
	[]schema.Item{
		mustField(schema.Field{Name: "frequency", Offset: 0, Type: datatype.UInt16{}, Unit: "Hz", IsRequired: true, Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "phase_1_voltage", Offset: 2, Type: datatype.UInt16{}, Unit: "V", Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "phase_2_voltage", Offset: 4, Type: datatype.UInt16{}, Unit: "V", Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "total_charge_energy", Offset: 6, Type: datatype.UInt32{}, Unit: "kWh", Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "total_feedback_energy", Offset: 10, Type: datatype.UInt32{}, Unit: "kWh", Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "phase_0_power", Offset: 26, Type: datatype.Int16{}, Unit: "W", IsRequired: true, Transform: []string{"abs"}}),
		mustField(schema.Field{Name: "phase_0_voltage", Offset: 28, Type: datatype.UInt16{}, Unit: "V", IsRequired: true, Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "phase_0_current", Offset: 30, Type: datatype.Int16{}, Unit: "A", IsRequired: true, Transform: []string{"abs", "scale:0.1"}}),
	},
	2000, "1.0.0", true, "verified_reference",
)

// BlockCellVoltages (6100, CELL_VOLTAGES) demonstrates ArrayField
// usage: 16 cell voltages, each masked to 14 bits and scaled to volts.
var BlockCellVoltages = mustBlockSchema(
	6100, "CELL_VOLTAGES", "Per-cell voltage readings", 32,
	[]schema.Item{
		mustArrayField(schema.ArrayField{
			Name: "cell_voltages", Offset: 0, Count: 16, Stride: 2,
			ItemType: datatype.UInt16{}, Unit: "V",
			Transform: []string{"bitmask:0x3FFF", "scale:0.001"},
		}),
	},
	2000, "1.0.0", false, "verified_reference",
)

// BlockHomeDataExcerpt (100, APP_HOME_DATA_EXCERPT) demonstrates
// PackedField/SubField usage against the aging-status word at
// offset 12: bits [12:16) aging status code, [8:12) aging progress
// percent, [4:8) aging fault code.
var BlockHomeDataExcerpt = mustBlockSchema(
	100, "APP_HOME_DATA_EXCERPT", "Illustrative excerpt of the dashboard block's aging-status bitfield", 14,
	[]schema.Item{
		mustField(schema.Field{Name: "pack_total_voltage", Offset: 0, Type: datatype.UInt16{}, Unit: "V", IsRequired: true, Transform: []string{"scale:0.1"}}),
		mustField(schema.Field{Name: "pack_total_soc", Offset: 4, Type: datatype.UInt16{}, Unit: "%"}),
		mustPackedField(16, 1, 2, 12, "pack_aging", false, "Pack aging status/progress/fault bitfield", []schema.SubField{
			{Name: "aging_status", Start: 12, End: 16},
			{Name: "aging_progress", Start: 8, End: 12},
			{Name: "aging_fault", Start: 4, End: 8},
		}),
	},
	2000, "1.0.0", false, "verified_reference",
)

// BlockInverterOutput (1400, INV_OUTPUT) demonstrates FieldGroup
// usage: per-phase voltage/current/power bundled under a group name,
// each sub-field using its own absolute offset.
var BlockInverterOutput = mustBlockSchema(
	1400, "INV_OUTPUT", "Inverter AC output, grouped per phase", 12,
	[]schema.Item{
		mustFieldGroup("phase_0", true, "Primary phase output", []*schema.Field{
			mustField(schema.Field{Name: "voltage", Offset: 0, Type: datatype.UInt16{}, Unit: "V", IsRequired: true, Transform: []string{"scale:0.1"}}),
			mustField(schema.Field{Name: "current", Offset: 2, Type: datatype.UInt16{}, Unit: "A", IsRequired: true, Transform: []string{"scale:0.1"}}),
			mustField(schema.Field{Name: "power", Offset: 4, Type: datatype.Int16{}, Unit: "W", IsRequired: true}),
		}),
		mustFieldGroup("phase_1", false, "Secondary phase output (3-phase systems)", []*schema.Field{
			mustField(schema.Field{Name: "voltage", Offset: 6, Type: datatype.UInt16{}, Unit: "V", Transform: []string{"scale:0.1"}}),
			mustField(schema.Field{Name: "current", Offset: 8, Type: datatype.UInt16{}, Unit: "A", Transform: []string{"scale:0.1"}}),
			mustField(schema.Field{Name: "power", Offset: 10, Type: datatype.Int16{}}),
		}),
	},
	2000, "1.0.0", false, "verified_reference",
)

func init() {
	for _, s := range []*schema.BlockSchema{BlockGridInfo, BlockCellVoltages, BlockHomeDataExcerpt, BlockInverterOutput} {
		registry.RegisterBuiltin(s)
	}

	RegisterMapper(BlockGridInfo.BlockID, groupMapper(GroupGrid))
	RegisterMapper(BlockCellVoltages.BlockID, groupMapper(GroupCells))
	RegisterMapper(BlockHomeDataExcerpt.BlockID, groupMapper(GroupCore))
	RegisterMapper(BlockInverterOutput.BlockID, groupMapper(GroupInverter))
}

// BuiltinProfile is a representative DeviceProfile with one group per
// illustrative schema above (core, grid, cells, inverter); GroupBattery
// has no blocks in it.
var BuiltinProfile = Profile{
	Model:       "EL100V2",
	TypeID:      "elite_v2",
	Protocol:    "v2",
	Description: "Illustrative Elite-series V2 profile covering the core, grid, cells and inverter block groups",
	Groups: map[BlockGroup]BlockGroupDefinition{
		GroupCore: {
			Name: "core", Blocks: []int{BlockHomeDataExcerpt.BlockID},
			Description: "Dashboard summary", PollInterval: 5 * time.Second,
		},
		GroupGrid: {
			Name: "grid", Blocks: []int{BlockGridInfo.BlockID},
			Description: "Grid input monitoring", PollInterval: 5 * time.Second,
		},
		GroupCells: {
			Name: "cells", Blocks: []int{BlockCellVoltages.BlockID},
			Description: "Per-cell voltage detail", PollInterval: 30 * time.Second,
		},
		GroupInverter: {
			Name: "inverter", Blocks: []int{BlockInverterOutput.BlockID},
			Description: "Inverter AC output", PollInterval: 5 * time.Second,
		},
	},
}

// Package parser applies a registered BlockSchema to a normalized
// Modbus payload, producing a ParsedRecord (spec §2, §4.3's
// "apply a schema" orchestration level).
package parser

import (
	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/schema"
)

// Parser owns a block_id -> *schema.BlockSchema table distinct from
// (and typically sourced from) a registry.SchemaRegistry: a Client
// auto-registers only the schemas its device profile actually needs.
type Parser struct {
	schemas map[int]*schema.BlockSchema
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{schemas: make(map[int]*schema.BlockSchema)}
}

// RegisterSchema makes s available to Parse under its block id,
// overwriting any previous schema registered for that id.
func (p *Parser) RegisterSchema(s *schema.BlockSchema) {
	p.schemas[s.BlockID] = s
}

// Has reports whether a schema is registered for blockID.
func (p *Parser) Has(blockID int) bool {
	_, ok := p.schemas[blockID]
	return ok
}

// Schema returns the registered schema for blockID, or nil.
func (p *Parser) Schema(blockID int) *schema.BlockSchema {
	return p.schemas[blockID]
}

// ListSchemas returns block_id -> schema name for every schema
// currently registered, regardless of whether the owning device
// profile still references that block id.
func (p *Parser) ListSchemas() map[int]string {
	out := make(map[int]string, len(p.schemas))
	for id, s := range p.schemas {
		out[id] = s.Name
	}
	return out
}

// Parse applies the schema registered for blockID to payload. A
// missing schema is a ParserError (spec §7: "no schema for block id").
// A required-field failure or strict-mode validation failure from the
// underlying BlockSchema.Parse is wrapped into a ParserError naming
// the block.
func (p *Parser) Parse(blockID int, payload []byte, protocolVersion int) (*schema.ParsedRecord, error) {
	s, ok := p.schemas[blockID]
	if !ok {
		return nil, errs.NewParserError(blockID, errMissingSchema{blockID})
	}
	record, err := s.Parse(payload, true, protocolVersion)
	if err != nil {
		return nil, errs.NewParserError(blockID, err)
	}
	if s.Strict && !record.Validation.Valid {
		return nil, errs.NewParserError(blockID, errStrictValidation{record.Validation.Errors})
	}
	return record, nil
}

type errMissingSchema struct{ blockID int }

func (e errMissingSchema) Error() string {
	return "no schema registered for this block id"
}

type errStrictValidation struct{ errors []string }

func (e errStrictValidation) Error() string {
	if len(e.errors) == 0 {
		return "strict validation failed"
	}
	return "strict validation failed: " + e.errors[0]
}

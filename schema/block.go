package schema

import (
	"fmt"
	"time"
)

// BlockSchema is the immutable description of one device block's
// register layout. Construct with NewBlockSchema; once built, a
// BlockSchema is safe for concurrent use by any number of parsers.
type BlockSchema struct {
	BlockID          int
	Name             string
	Description      string
	MinLength        int
	Items            []Item
	ProtocolVersion  int
	SchemaVersion    string
	Strict           bool
	VerificationTag  string
}

// NewBlockSchema validates structural invariants (duplicate item
// names, SubField bit ranges already checked at construction time)
// and returns the immutable schema.
func NewBlockSchema(blockID int, name, description string, minLength int, items []Item, protocolVersion int, schemaVersion string, strict bool, verificationTag string) (*BlockSchema, error) {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.FieldName()] {
			return nil, fmt.Errorf("block %d (%s): duplicate item name %q", blockID, name, item.FieldName())
		}
		seen[item.FieldName()] = true
	}
	return &BlockSchema{
		BlockID:         blockID,
		Name:            name,
		Description:     description,
		MinLength:       minLength,
		Items:           items,
		ProtocolVersion: protocolVersion,
		SchemaVersion:   schemaVersion,
		Strict:          strict,
		VerificationTag: verificationTag,
	}, nil
}

// maxItemEnd returns the furthest byte reached by any item in the
// schema, used for strict-mode trailing-byte diagnostics.
func (s *BlockSchema) maxItemEnd() int {
	end := 0
	for _, item := range s.Items {
		if e := item.End(); e > end {
			end = e
		}
	}
	return end
}

// validateItem checks one schema item's range against payload,
// recursing into a FieldGroup's members individually rather than
// treating the group as one opaque item — a group's sub-fields are
// validated exactly like top-level fields (§4.3), so one out-of-range
// optional member degrades only itself to missing, not the whole
// group.
func validateItem(result *ValidationResult, item Item, payload []byte) {
	if g, ok := item.(*FieldGroup); ok {
		for _, m := range g.Members {
			validateItem(result, m, payload)
		}
		return
	}
	if item.End() > len(payload) {
		if item.Required() {
			result.addError("field %q: end %d exceeds payload length %d", item.FieldName(), item.End(), len(payload))
		} else {
			result.addMissing(item.FieldName())
		}
	}
}

// Validate checks payload against the schema without extracting
// values. See spec §4.3.
func (s *BlockSchema) Validate(payload []byte) *ValidationResult {
	result := newValidationResult()
	if len(payload) < s.MinLength {
		result.addError("length %d < minimum %d", len(payload), s.MinLength)
	}
	for _, item := range s.Items {
		validateItem(result, item, payload)
	}
	if s.Strict {
		if maxEnd := s.maxItemEnd(); len(payload) > maxEnd {
			result.addWarning("%d trailing byte(s) beyond last field end %d", len(payload)-maxEnd, maxEnd)
		}
	}
	return result
}

// Parse applies every item to payload in order, producing a
// ParsedRecord. When validate is true, validation diagnostics from
// min_length/required/strict checks are folded into the record's
// ValidationResult alongside per-item skip/null diagnostics.
func (s *BlockSchema) Parse(payload []byte, validate bool, protocolVersion int) (*ParsedRecord, error) {
	values := make(map[string]interface{}, len(s.Items))
	var result *ValidationResult
	if validate {
		result = s.Validate(payload)
	} else {
		result = newValidationResult()
	}

	for _, item := range s.Items {
		if minV := item.MinProtocolVersion(); minV != nil && *minV > protocolVersion {
			values[item.FieldName()] = nil
			continue
		}
		// FieldGroup bypasses the End()/Required() checks below: its
		// aggregate End() is the widest member's, so applying those
		// checks to the group as a whole would fail/null the entire
		// group over a single out-of-range optional member.
		// FieldGroup.Parse already bounds-checks each member
		// individually and only errors for a required one. An optional
		// group none of whose members fits the payload is emitted as nil.
		if g, ok := item.(*FieldGroup); ok {
			fits := g.Required()
			for _, m := range g.Members {
				fits = fits || m.End() <= len(payload)
			}
			if !fits {
				values[g.Name] = nil
				if !validate {
					for _, m := range g.Members {
						result.addMissing(m.Name)
					}
				}
				continue
			}
			groupValues, err := g.Parse(payload)
			if err != nil {
				return nil, err
			}
			values[g.Name] = groupValues
			if !validate {
				for _, m := range g.Members {
					if m.End() > len(payload) && !m.Required() {
						result.addMissing(m.Name)
					}
				}
			}
			continue
		}
		if item.End() > len(payload) {
			if item.Required() {
				return nil, fmt.Errorf("required field %q: end %d exceeds payload length %d", item.FieldName(), item.End(), len(payload))
			}
			values[item.FieldName()] = nil
			if !validate {
				result.addMissing(item.FieldName())
			}
			continue
		}
		value, err := item.Parse(payload)
		if err != nil {
			if item.Required() {
				return nil, fmt.Errorf("required field %q: %w", item.FieldName(), err)
			}
			values[item.FieldName()] = nil
			continue
		}
		values[item.FieldName()] = value
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)

	return &ParsedRecord{
		BlockID:         s.BlockID,
		SchemaName:      s.Name,
		Values:          values,
		Raw:             raw,
		Length:          len(raw),
		ProtocolVersion: protocolVersion,
		SchemaVersion:   s.SchemaVersion,
		Timestamp:       time.Now().UnixMilli(),
		Validation:      result,
	}, nil
}

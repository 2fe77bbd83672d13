package schema

import "fmt"

// FieldGroup bundles a set of absolute-offset Fields under one
// compound name, emitting a map[string]interface{} rather than a
// scalar. It exists for device registers that are logically one
// structure (e.g. a three-phase voltage/current/power reading) but
// physically a handful of discontiguous Field entries.
type FieldGroup struct {
	Name            string
	Members         []*Field
	IsRequired      bool
	MinProtoVersion *int
	Description     string
}

// NewFieldGroup validates that member names are unique within the
// group and computes the group's End() from its widest member.
func NewFieldGroup(name string, required bool, minVersion *int, description string, members []*Field) (*FieldGroup, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("field group %q: must have at least one member", name)
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.Name] {
			return nil, fmt.Errorf("field group %q: duplicate member name %q", name, m.Name)
		}
		seen[m.Name] = true
	}
	return &FieldGroup{
		Name:            name,
		Members:         members,
		IsRequired:      required,
		MinProtoVersion: minVersion,
		Description:     description,
	}, nil
}

func (g *FieldGroup) FieldName() string       { return g.Name }
func (g *FieldGroup) Required() bool          { return g.IsRequired }
func (g *FieldGroup) MinProtocolVersion() *int { return g.MinProtoVersion }

// End returns the furthest byte reached by any member.
func (g *FieldGroup) End() int {
	end := 0
	for _, m := range g.Members {
		if e := m.End(); e > end {
			end = e
		}
	}
	return end
}

// Parse evaluates every member field against payload and returns a
// map keyed by member name. A non-required member that fails to
// parse is recorded as nil rather than aborting the whole group,
// mirroring Field's own null-on-missing behavior; a required member's
// error propagates.
func (g *FieldGroup) Parse(payload []byte) (interface{}, error) {
	values := make(map[string]interface{}, len(g.Members))
	for _, m := range g.Members {
		if m.End() > len(payload) {
			if m.Required() {
				return nil, fmt.Errorf("field group %q member %q exceeds data length %d", g.Name, m.Name, len(payload))
			}
			values[m.Name] = nil
			continue
		}
		v, err := m.Parse(payload)
		if err != nil {
			if m.Required() {
				return nil, fmt.Errorf("field group %q member %q: %w", g.Name, m.Name, err)
			}
			values[m.Name] = nil
			continue
		}
		values[m.Name] = v
	}
	return values, nil
}

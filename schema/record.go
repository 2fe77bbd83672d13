package schema

import "fmt"

// ValidationResult is the output of BlockSchema.Validate, and is also
// accumulated during BlockSchema.Parse.
type ValidationResult struct {
	Valid         bool
	Errors        []string
	Warnings      []string
	MissingFields []string
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:         true,
		Errors:        []string{},
		Warnings:      []string{},
		MissingFields: []string{},
	}
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addMissing(name string) {
	r.MissingFields = append(r.MissingFields, name)
}

// ParsedRecord is the result of applying a BlockSchema to a
// normalized payload.
type ParsedRecord struct {
	BlockID         int
	SchemaName      string
	Values          map[string]interface{}
	Raw             []byte
	Length          int
	ProtocolVersion int
	SchemaVersion   string
	Timestamp       int64
	Validation      *ValidationResult
}

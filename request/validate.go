package request

// requiredFields are checked in order; the first failure is reported.
var requiredFields = [...]string{FieldID, FieldOwner, FieldLabel, FieldDescription}

// IsValid reports whether id, owner, label and description are all present
// and hold strings. Attribute pairs are not inspected.
func IsValid(fields map[string]any) bool {
	return Validate(fields) == nil
}

// Validate is IsValid with the reason attached.
func Validate(fields map[string]any) error {
	if fields == nil {
		return &ValidationError{Field: FieldID, Reason: "missing"}
	}
	for _, name := range requiredFields {
		var (
			v  any
			ok bool
		)
		if name == FieldID {
			v, ok = lookupID(fields)
		} else {
			v, ok = fields[name]
		}
		if !ok {
			return &ValidationError{Field: name, Reason: "missing"}
		}
		if _, isStr := v.(string); !isStr {
			return &ValidationError{Field: name, Reason: "must be a string"}
		}
	}
	return nil
}

// lookupID prefers id and falls back to the legacy widgetId field.
func lookupID(fields map[string]any) (any, bool) {
	if v, ok := fields[FieldID]; ok {
		return v, true
	}
	v, ok := fields[FieldLegacyID]
	return v, ok
}

package config

// Redacted wraps a secret so it cannot leak through fmt, logs, JSON or YAML output.
//
//	secret := config.NewRedacted("s3cr3t")
//	fmt.Println(secret)   // [REDACTED]
//	secret.Value()        // "s3cr3t"
type Redacted struct {
	value string
}

// NewRedacted creates a Redacted wrapping value.
func NewRedacted(value string) Redacted {
	return Redacted{value: value}
}

// Value returns the secret. Never log the result.
func (r Redacted) Value() string {
	return r.value
}

// String implements fmt.Stringer.
func (r Redacted) String() string {
	if r.value == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v.
func (r Redacted) GoString() string {
	return "config.Redacted{[REDACTED]}"
}

// IsEmpty reports whether no secret is set.
func (r Redacted) IsEmpty() bool {
	return r.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (r Redacted) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Redacted) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

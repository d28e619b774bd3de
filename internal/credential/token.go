package credential

// Token wraps a bearer token so that it never ends up in logs by accident.
// fmt verbs, text and JSON marshaling all print "[REDACTED]".
type Token struct {
	value string
}

// NewToken wraps the given value.
func NewToken(value string) Token {
	return Token{value: value}
}

// Value returns the raw token. Use it only to authenticate outbound calls.
func (t Token) Value() string {
	return t.value
}

func (t Token) String() string {
	return "[REDACTED]"
}

func (t Token) GoString() string {
	return "credential.Token{[REDACTED]}"
}

func (t Token) IsEmpty() bool {
	return t.value == ""
}

func (t Token) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

func (t Token) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

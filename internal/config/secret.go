package config

import "encoding/json"

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// IsSet reports whether the secret carries a usable value. Known
// placeholder strings left over from example env files count as unset.
func (s Secret) IsSet() bool {
	return s != "" && !isPlaceholder(string(s))
}

var placeholders = map[string]bool{
	"your_admin_api_key_here":  true,
	"changeme":                 true,
	"default-secret-change-me": true,
}

func isPlaceholder(v string) bool {
	return placeholders[v]
}

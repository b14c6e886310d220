package envutil

import (
	"os"
	"strings"
)

// IsDev checks if we're running in development mode
// where security requirements can be relaxed for testing
func IsDev() bool {
	env := strings.ToLower(os.Getenv("EGGSPLAIN_FRONT_ENV"))
	return env == "development" || env == "dev"
}

// IsTrue interprets common truthy env var spellings
func IsTrue(name string) bool {
	v := strings.ToLower(os.Getenv(name))
	return v == "true" || v == "1" || v == "yes"
}

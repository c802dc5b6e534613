package core

import (
	"strings"

	"github.com/google/uuid"
)

const tempIDPrefix = "tmp-"

// GenerateTempID creates a local id for a message the server has not assigned
// an id to yet.
func GenerateTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was produced by GenerateTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// ShortID returns a display prefix for an id.
func ShortID(id string, length int) string {
	base := strings.TrimPrefix(id, tempIDPrefix)
	base = strings.ReplaceAll(base, "-", "")
	if length <= 0 {
		return ""
	}
	if length > len(base) {
		length = len(base)
	}
	return base[:length]
}

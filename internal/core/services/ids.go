package services

import (
	"fmt"

	"github.com/google/uuid"
)

// newUUID is swapped in tests for deterministic ids.
var newUUID = uuid.NewString

// recordID returns "{category}_{index}_{suffix}" where suffix is the first
// eight hex characters of a random UUID. Retrying an upload never
// overwrites the previous attempt.
func recordID(category string, index int) string {
	return fmt.Sprintf("%s_%d_%s", category, index, newUUID()[:8])
}

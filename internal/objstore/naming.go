package objstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArtifactName builds a transport-safe output name from a fixed prefix, a
// compact timestamp, and a random suffix. The name is deliberately ASCII-only
// so it survives every transport encoding.
func ArtifactName(prefix, ext string, now time.Time) string {
	suffix, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("%s_%s_%s%s", prefix, now.Format("20060102150405"), suffix, ext)
}

package stats

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
)

// RequestFingerprint creates a stable key for a request, used to correlate
// log lines for identical queries. Key order in body does not matter.
func RequestFingerprint(path string, body client.Params) string {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{path}
	for _, k := range keys {
		// json.Marshal sorts nested map keys, so nested values are stable too
		v, err := json.Marshal(body[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", body[k]))
		}
		parts = append(parts, k+"="+string(v))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", hash[:16]) // First 32 hex chars
}

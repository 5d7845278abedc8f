package redflag

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a stable digest of the normalized request input.
// It is used to correlate log lines and audit records for one consultation
// without storing the raw symptom text.
func Fingerprint(symptoms, age, extra string) string {
	h := blake3.New()
	for _, field := range []string{symptoms, age, extra} {
		_, _ = h.WriteString(Normalize(field))
		_, _ = h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/morphic/api/internal/models"
)

// Compute derives the deterministic cache key for a generation request.
// The key covers idea, model id and tone; the optional blueprint context
// does not participate so context-only edits still hit the cache.
func Compute(req models.GenerationRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Idea))
	h.Write([]byte{0})
	h.Write([]byte(req.ModelID))
	h.Write([]byte{0})
	h.Write([]byte(req.Tone))
	return hex.EncodeToString(h.Sum(nil))
}

package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential reports that no API key is available. Terminal
// for the run; the user has to supply a key through the key bridge.
var ErrMissingCredential = errors.New("missing model API credential")

// UpstreamError reports a failed remote model call: a non-2xx status or
// a structurally empty response. Retryable by re-invoking generate.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model endpoint returned status %d", e.Status)
	}
	return fmt.Sprintf("model endpoint error: %s", e.Reason)
}

// pkg/schema/messages.go
package schema

import (
	"fmt"
	"strings"
)

// Placeholder is rejected anywhere inside a resolved blob key. Upstream
// producers that templated keys from missing values historically emitted
// it verbatim.
const Placeholder = "undefined"

// WorkMessage is the queue payload consumed by the worker. Messages that
// carry an OwnerID reference a stored job record and run the full job
// pipeline; messages without one are generic key-to-key transforms whose
// keys may be derived from the job id and configured prefixes.
type WorkMessage struct {
	JobID     string `json:"jobId"`
	OwnerID   string `json:"ownerId,omitempty"`
	InputKey  string `json:"inputKey,omitempty"`
	OutputKey string `json:"outputKey,omitempty"`
	Ops       *Ops   `json:"ops,omitempty"`
}

// Ops describes the optional operations of a generic transform message.
type Ops struct {
	Resize    *Resize `json:"resize,omitempty"`
	Greyscale bool    `json:"greyscale,omitempty"`
	Rotate    *int    `json:"rotate,omitempty"`
}

type Resize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResolveKeys returns the input and output blob keys for a generic work
// message, deriving them from the job id and the given prefixes when not
// set explicitly. It fails before any blob I/O if a key cannot be derived
// or would contain a placeholder token.
func (m WorkMessage) ResolveKeys(uploadPrefix, outputPrefix string) (inKey, outKey string, err error) {
	inKey = m.InputKey
	if inKey == "" {
		if m.JobID == "" {
			return "", "", fmt.Errorf("missing keys: supply jobId or explicit inputKey/outputKey")
		}
		inKey = uploadPrefix + m.JobID + ".bin"
	}
	outKey = m.OutputKey
	if outKey == "" {
		if m.JobID == "" {
			return "", "", fmt.Errorf("missing keys: supply jobId or explicit inputKey/outputKey")
		}
		outKey = outputPrefix + m.JobID + ".png"
	}
	if strings.Contains(inKey, Placeholder) || strings.Contains(outKey, Placeholder) {
		return "", "", fmt.Errorf("key contains placeholder token: in=%q out=%q", inKey, outKey)
	}
	return inKey, outKey, nil
}

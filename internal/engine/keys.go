// internal/engine/keys.go
package engine

// Prefixes namespace the blob keys this engine reads and writes.
type Prefixes struct {
	Upload string
	Output string
	Thumb  string
}

// OutputKey and ThumbKey are deterministic: computed purely from owner and
// job id, so a duplicate execution overwrites the same locations.
func (p Prefixes) OutputKey(ownerID, jobID string) string {
	return p.Output + ownerID + "/" + jobID + ".jpg"
}

func (p Prefixes) ThumbKey(ownerID, jobID string) string {
	return p.Thumb + ownerID + "/" + jobID + ".jpg"
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKeysDerived(t *testing.T) {
	msg := WorkMessage{JobID: "job-1"}

	in, out, err := msg.ResolveKeys("uploads/", "outputs/")
	require.NoError(t, err)
	assert.Equal(t, "uploads/job-1.bin", in)
	assert.Equal(t, "outputs/job-1.png", out)
}

func TestResolveKeysExplicit(t *testing.T) {
	msg := WorkMessage{JobID: "job-1", InputKey: "raw/a.jpg", OutputKey: "done/a.png"}

	in, out, err := msg.ResolveKeys("uploads/", "outputs/")
	require.NoError(t, err)
	assert.Equal(t, "raw/a.jpg", in)
	assert.Equal(t, "done/a.png", out)
}

func TestResolveKeysMissingJobID(t *testing.T) {
	_, _, err := WorkMessage{}.ResolveKeys("uploads/", "outputs/")
	require.Error(t, err)
}

func TestResolveKeysPlaceholder(t *testing.T) {
	msg := WorkMessage{JobID: "j1", InputKey: "uploads/undefined.bin"}
	_, _, err := msg.ResolveKeys("uploads/", "outputs/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

package button

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimButtonPressRelease(t *testing.T) {
	b := NewSim()

	pressed, err := b.Pressed()
	require.NoError(t, err)
	assert.False(t, pressed, "a new button starts released")

	b.Press()
	pressed, err = b.Pressed()
	require.NoError(t, err)
	assert.True(t, pressed)

	b.Release()
	pressed, err = b.Pressed()
	require.NoError(t, err)
	assert.False(t, pressed)
}

func TestSimButtonToggle(t *testing.T) {
	b := NewSim()

	assert.True(t, b.Toggle())
	pressed, err := b.Pressed()
	require.NoError(t, err)
	assert.True(t, pressed)

	assert.False(t, b.Toggle())
	pressed, err = b.Pressed()
	require.NoError(t, err)
	assert.False(t, pressed)
}

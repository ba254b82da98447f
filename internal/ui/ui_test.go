package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunrised/internal/led"
	"sunrised/internal/sunrise"
)

func TestModelRendersProgress(t *testing.T) {
	m := New(5, nil, nil)

	updated, _ := m.Update(ProgressMsg(sunrise.Progress{
		Phase:   "daylight",
		Elapsed: 83 * time.Second,
		Total:   20 * time.Minute,
	}))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "LED test")
	assert.Contains(t, view, "daylight")
	assert.Contains(t, view, "01:23 / 20:00")
	assert.Contains(t, view, "waiting for button")
}

func TestModelFrameAndStatus(t *testing.T) {
	m := New(3, nil, nil)

	updated, _ := m.Update(FrameMsg([]led.Color{{R: 50, G: 15, B: 6}, {}, {}}))
	m = updated.(Model)
	updated, _ = m.Update(StatusMsg("running demo"))
	m = updated.(Model)

	assert.Contains(t, m.View(), "running demo")
}

func TestModelSpaceTapsButton(t *testing.T) {
	taps := 0
	m := New(3, func() { taps++ }, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, taps)
}

func TestModelQuit(t *testing.T) {
	quits := 0
	m := New(3, nil, func() { quits++ })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, quits)
}

func TestModelDoneCarriesError(t *testing.T) {
	m := New(3, nil, nil)

	updated, cmd := m.Update(DoneMsg{Err: assert.AnError})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, assert.AnError, updated.(Model).Err())
}

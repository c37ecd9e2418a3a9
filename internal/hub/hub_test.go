package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/history"
)

func TestHub_PublishFansOut(t *testing.T) {
	h := New()
	a := NewChanPeer("a", 4)
	b := NewChanPeer("b", 4)
	h.Register(a, false)
	h.Register(b, false)
	assert.Equal(t, 2, h.Count())

	ev := Event{Change: history.Change{Kind: history.ChangeAdded, Count: 1}, Monitoring: true}
	h.Publish(ev)

	assert.Equal(t, ev, <-a.Events())
	assert.Equal(t, ev, <-b.Events())

	h.Unregister(a)
	h.Publish(Event{Change: history.Change{Kind: history.ChangeCleared}})
	assert.Len(t, a.Events(), 0)
	assert.Len(t, b.Events(), 1)
}

func TestHub_RegisterReplaysLatest(t *testing.T) {
	h := New()
	_, ok := h.Latest()
	assert.False(t, ok)

	ev := Event{Change: history.Change{Kind: history.ChangeLoaded, Count: 3}}
	h.Publish(ev)

	late := NewChanPeer("late", 1)
	h.Register(late, true)
	require.Len(t, late.Events(), 1)
	assert.Equal(t, ev, <-late.Events())

	quiet := NewChanPeer("quiet", 1)
	h.Register(quiet, false)
	assert.Len(t, quiet.Events(), 0)
}

func TestChanPeer_DropsWhenFull(t *testing.T) {
	p := NewChanPeer("p", 1)
	p.Send(Event{})
	p.Send(Event{})
	assert.Len(t, p.Events(), 1)
}

package session_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/relay/internal/protocol"
	"firestige.xyz/relay/internal/session"
)

type text string

func (t text) String() string { return string(t) }

func TestAssemblerCompletesOnLastFragment(t *testing.T) {
	m := protocol.NewMessage[text](1, 2, 42, text(strings.Repeat("z", 300)))
	d := session.NewDisassembler[text]()
	frags, err := d.Disassembly(m)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	a := session.NewAssembler[text]()
	_, complete, err := a.Insert(m.SessionId, frags[0])
	require.NoError(t, err)
	assert.False(t, complete)

	_, complete, err = a.Insert(m.SessionId, frags[1])
	require.NoError(t, err)
	assert.False(t, complete)

	got, complete, err := a.Insert(m.SessionId, frags[2])
	require.NoError(t, err)
	require.True(t, complete)
	assert.Equal(t, m, got)
}

func TestAssemblerDuplicateInsertIsIdempotent(t *testing.T) {
	m := protocol.NewMessage[text](1, 2, 1, text("hi"))
	d := session.NewDisassembler[text]()
	frags, _ := d.Disassembly(m)

	a := session.NewAssembler[text]()
	_, complete, err := a.Insert(m.SessionId, frags[0])
	require.NoError(t, err)
	require.True(t, complete)

	got, complete, err := a.Insert(m.SessionId, frags[0])
	require.NoError(t, err)
	require.True(t, complete)
	assert.Equal(t, m, got)
}

func TestAssemblerForgetDropsState(t *testing.T) {
	m := protocol.NewMessage[text](1, 2, 1, text("hi"))
	d := session.NewDisassembler[text]()
	frags, _ := d.Disassembly(m)

	a := session.NewAssembler[text]()
	a.Insert(m.SessionId, frags[0])
	a.Forget(m.SessionId)

	_, complete, err := a.Insert(m.SessionId, frags[0])
	require.NoError(t, err)
	assert.True(t, complete, "re-inserting after forget starts a fresh session that completes the same way")
}

func TestDisassemblerForgetLastFragmentClearsDestination(t *testing.T) {
	m := protocol.NewMessage[text](1, 2, 1, text("hi"))
	d := session.NewDisassembler[text]()
	frags, err := d.Disassembly(m)
	require.NoError(t, err)
	require.Len(t, frags, 1)

	_, ok := d.GetDestination(m.SessionId)
	require.True(t, ok)

	removed, ok := d.Forget(m.SessionId, frags[0].Index)
	require.True(t, ok)
	assert.Equal(t, frags[0], removed)

	_, ok = d.GetDestination(m.SessionId)
	assert.False(t, ok, "destination entry must clear once the fragment set empties")

	_, ok = d.Get(m.SessionId, frags[0].Index)
	assert.False(t, ok)
}

func TestNewSessionIdMonotonic(t *testing.T) {
	d := session.NewDisassembler[text]()
	a := d.NewSessionId()
	b := d.NewSessionId()
	c := d.NewSessionId()
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(1), b)
	assert.Equal(t, uint64(2), c)
}

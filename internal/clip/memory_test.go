package clip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadWrite(t *testing.T) {
	m := NewMemory("start")

	got, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "start", got)

	require.NoError(t, m.Write("copied"))
	m.Set("external")

	got, err = m.Read()
	require.NoError(t, err)
	assert.Equal(t, "external", got)
	assert.Equal(t, []string{"copied"}, m.Writes())
	assert.Equal(t, 2, m.Reads())
}

func TestMemory_FailWrapsUnavailable(t *testing.T) {
	m := NewMemory("x")
	locked := errors.New("locked by another process")
	m.Fail(locked)

	_, err := m.Read()
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, locked)
	assert.ErrorIs(t, m.Write("y"), ErrUnavailable)

	m.Fail(nil)
	got, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestHeadless(t *testing.T) {
	b := newHeadless()
	_, err := b.Read()
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, b.Write("x"), ErrUnavailable)
}

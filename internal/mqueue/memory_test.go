package mqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryNamespaceContract(t *testing.T) {
	exerciseNamespace(t, NewMemory(Attr{}), "100", "200")
}

func TestMemoryUnlinkKeepsOpenHandles(t *testing.T) {
	ns := NewMemory(DefaultAttr())
	own, err := ns.OpenOwn("1")
	require.NoError(t, err)
	remote, err := ns.OpenRemote("1")
	require.NoError(t, err)

	require.NoError(t, ns.Unlink("1"))
	require.False(t, ns.Exists("1"))
	require.ErrorIs(t, ns.Unlink("1"), ErrNotFound)

	require.NoError(t, remote.Send([]byte("late")))
	got, err := own.Receive()
	require.NoError(t, err)
	require.Equal(t, "late", string(got))
}

func TestMemoryCloseDisarms(t *testing.T) {
	ns := NewMemory(DefaultAttr())
	own, err := ns.OpenOwn("1")
	require.NoError(t, err)
	require.NoError(t, own.Arm())
	require.NoError(t, own.Close())
	require.NoError(t, own.Close())
	require.ErrorIs(t, own.Arm(), ErrClosed)

	remote, err := ns.OpenRemote("1")
	require.NoError(t, err)
	require.NoError(t, remote.Send([]byte("x")))
	assertNoWake(t, own)
}

package mqueue

import (
	"testing"
	"time"

	"github.com/danmuck/mqmesh/internal/identity"
	"github.com/stretchr/testify/require"
)

// exerciseNamespace runs the shared channel contract against ns. Names must
// not exist in ns beforehand.
func exerciseNamespace(t *testing.T, ns Namespace, own, peer identity.ID) {
	t.Helper()

	t.Run("open remote missing", func(t *testing.T) {
		_, err := ns.OpenRemote(peer)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, err, ErrResource)
	})

	ch, err := ns.OpenOwn(own)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Destroy(ns, ch) })
	require.Equal(t, own, ch.ID())

	t.Run("receive empty would block", func(t *testing.T) {
		_, err := ch.Receive()
		require.ErrorIs(t, err, ErrEmpty)
		require.True(t, IsWouldBlock(err))
	})

	t.Run("fifo through a remote handle", func(t *testing.T) {
		remote, err := ns.OpenRemote(own)
		require.NoError(t, err)
		require.NoError(t, remote.Send([]byte("a")))
		require.NoError(t, remote.Send([]byte("b")))
		require.NoError(t, remote.Close())

		n, err := ch.Len()
		require.NoError(t, err)
		require.Equal(t, 2, n)

		got, err := ch.Receive()
		require.NoError(t, err)
		require.Equal(t, "a", string(got))
		got, err = ch.Receive()
		require.NoError(t, err)
		require.Equal(t, "b", string(got))
	})

	t.Run("capacity and message size", func(t *testing.T) {
		for i := 0; i < DefaultCapacity; i++ {
			require.NoError(t, ch.Send([]byte{byte('0' + i)}))
		}
		require.ErrorIs(t, ch.Send([]byte("x")), ErrFull)
		for i := 0; i < DefaultCapacity; i++ {
			_, err := ch.Receive()
			require.NoError(t, err)
		}
		require.ErrorIs(t, ch.Send(make([]byte, DefaultMessageSize+1)), ErrMessageSize)
		require.ErrorIs(t, ch.Send(nil), ErrMessageSize)
	})

	t.Run("arm fires once per wake", func(t *testing.T) {
		require.NoError(t, ch.Arm())
		assertNoWake(t, ch)

		remote, err := ns.OpenRemote(own)
		require.NoError(t, err)
		defer remote.Close()
		require.NoError(t, remote.Send([]byte("1")))
		assertWake(t, ch)

		require.NoError(t, remote.Send([]byte("2")))
		assertNoWake(t, ch)

		// arming with pending data wakes straight away
		require.NoError(t, ch.Arm())
		assertWake(t, ch)
		for {
			if _, err := ch.Receive(); err != nil {
				require.ErrorIs(t, err, ErrEmpty)
				break
			}
		}
	})

	t.Run("close and reopen starts empty", func(t *testing.T) {
		require.NoError(t, ch.Send([]byte("stale")))
		require.NoError(t, Destroy(ns, ch))
		require.ErrorIs(t, ch.Send([]byte("x")), ErrClosed)

		_, err := ns.OpenRemote(own)
		require.ErrorIs(t, err, ErrNotFound)

		again, err := ns.OpenOwn(own)
		require.NoError(t, err)
		defer func() { _ = Destroy(ns, again) }()
		_, err = again.Receive()
		require.ErrorIs(t, err, ErrEmpty)
	})
}

func assertWake(t *testing.T, ch Channel) {
	t.Helper()
	select {
	case <-ch.Wake():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected wake-up on %s", ch.ID())
	}
}

func assertNoWake(t *testing.T, ch Channel) {
	t.Helper()
	select {
	case <-ch.Wake():
		t.Fatalf("unexpected wake-up on %s", ch.ID())
	case <-time.After(50 * time.Millisecond):
	}
}

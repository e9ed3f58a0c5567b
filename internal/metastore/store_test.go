package metastore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreAddFindUpdate(t *testing.T) {
	s := NewMemStore()

	_, _, found, err := s.Find("LOG_DEV")
	require.NoError(t, err)
	require.False(t, found)

	cookie, err := s.AddSubSB("LOG_DEV", []byte("v1"))
	require.NoError(t, err)

	buf, foundCookie, found, err := s.Find("LOG_DEV")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", string(buf))
	require.Equal(t, cookie, foundCookie)

	require.NoError(t, s.UpdateSubSB(cookie, []byte("v2")))
	buf, _, found, err = s.Find("LOG_DEV")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", string(buf))
}

func TestPebbleStoreAddFindUpdate(t *testing.T) {
	db := newTestPebbleDB(t)
	s := NewPebbleStore(db)

	cookie, err := s.AddSubSB("LOG_DEV", []byte("hello"))
	require.NoError(t, err)

	buf, foundCookie, found, err := s.Find("LOG_DEV")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello", string(buf))
	require.Equal(t, cookie, foundCookie)

	require.NoError(t, s.UpdateSubSB(cookie, []byte("world")))
	buf, _, found, err = s.Find("LOG_DEV")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "world", string(buf))

	require.False(t, s.IsAlignedBufNeeded(4096))
}

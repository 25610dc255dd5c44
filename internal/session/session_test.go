package session

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecrets_OAuthToken(t *testing.T) {
	s := &Secrets{User: "u1", Login: "alice@example.com"}
	_, ok := s.OAuthToken()
	assert.False(t, ok)

	s.Token = "tok"
	tok, ok := s.OAuthToken()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "alice@example.com", s.LoginName())
}

func TestStore_SaveLoadClear(t *testing.T) {
	st := NewStore(keyring.NewArrayKeyring(nil))

	require.NoError(t, st.Save(&Secrets{User: "u1", Login: "alice", Password: "pw"}))
	require.NoError(t, st.Save(&Secrets{User: "u2", Token: "t2"}))

	s1, err := st.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, &Secrets{User: "u1", Login: "alice", Password: "pw"}, s1)

	s2, err := st.Load("u2")
	require.NoError(t, err)
	tok, ok := s2.OAuthToken()
	assert.True(t, ok)
	assert.Equal(t, "t2", tok)

	require.NoError(t, st.Clear("u1"))
	s1, err = st.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, &Secrets{User: "u1"}, s1)

	require.NoError(t, st.Clear("nobody"))
}

func TestOpenStore_FileBackend(t *testing.T) {
	st, err := OpenStore(t.TempDir(), "passphrase")
	require.NoError(t, err)

	require.NoError(t, st.Save(&Secrets{User: "u1", Password: "pw"}))
	s, err := st.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, "pw", s.LoginPassword())
}

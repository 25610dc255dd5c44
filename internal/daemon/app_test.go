package daemon

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/bootstrap"
	"github.com/dmitrijs2005/carddavsync/internal/config"
	"github.com/dmitrijs2005/carddavsync/internal/manager"
	"github.com/dmitrijs2005/carddavsync/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *bootstrap.Env {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.KeyringDir = ""
	cfg.HealthAddr = "127.0.0.1:0"
	cfg.RefreshInterval = time.Hour

	env, err := bootstrap.Open(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestApp_Target(t *testing.T) {
	env := newEnv(t)
	app := NewApp(env)
	ctx := context.Background()

	m, _, err := env.Manager("u1")
	require.NoError(t, err)
	_, err = m.InsertAccount(ctx, models.AccountSettings{
		AccountName: models.Ptr("Home"),
		Username:    models.Ptr("bob"),
		Password:    models.Ptr("secret"),
	})
	require.NoError(t, err)

	target, err := app.target(ctx, "u1")
	require.NoError(t, err)
	require.IsType(t, &manager.Manager{}, target)

	ids, err := target.AccountIDs(ctx, false)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app := NewApp(newEnv(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_VisitsConfiguredUserWithoutAccounts(t *testing.T) {
	env := newEnv(t)
	env.Config.UserID = "fresh-user"
	app := NewApp(env)

	users, err := app.refresher.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-user"}, users)
}

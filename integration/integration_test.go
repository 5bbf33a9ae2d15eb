package integration

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyfromundefined/ventyd-sub000/adapters/cueschema"
	"github.com/tonyfromundefined/ventyd-sub000/adapters/sqlite"
	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
	"github.com/tonyfromundefined/ventyd-sub000/core/entity/entitytest"
)

// TestIntegration drives the full lifecycle against a real SQLite event log:
// create, commit, replay, evolve, conflict, cached read, plugin fan-out.
func TestIntegration(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		mu        sync.Mutex
		published []string
	)
	repo := entity.NewRepository(
		slog.Default(),
		entitytest.NewSchema(),
		db,
		entity.WithStateCacheLRU(64),
		entity.WithPlugins(
			entity.PluginFunc("capture", func(_ context.Context, c entity.Committed) error {
				mu.Lock()
				defer mu.Unlock()
				for _, ev := range c.Events {
					published = append(published, ev.EventName)
				}
				return nil
			}),
		),
	)

	// create and commit
	e, err := repo.Schema().Create(entity.CreateArgs{
		EntityID: "profile-1",
		Body:     entitytest.ProfileCreated{Nickname: "John"},
	})
	require.NoError(t, err)
	_, err = e.Dispatch(entitytest.EventBioUpdated, entitytest.BioUpdated{Bio: "hello"})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, e))

	// replay and evolve
	loaded, err := repo.FindOne(ctx, "profile-1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Committed())

	_, err = loaded.Dispatch(entitytest.EventNicknameUpdated, entitytest.NicknameUpdated{Nickname: "Jane"})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, loaded))

	state, err := loaded.State()
	require.NoError(t, err)
	assert.Equal(t, "Jane", state.Nickname)
	assert.Equal(t, "hello", state.Bio)
	assert.Equal(t, 3, state.NumEvents)

	// a stale session conflicts and stays retryable
	stale, err := repo.FindOne(ctx, "profile-1")
	require.NoError(t, err)
	fresh, err := repo.FindOne(ctx, "profile-1")
	require.NoError(t, err)

	_, err = fresh.Dispatch(entitytest.EventDeactivated, entitytest.ProfileDeactivated{})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, fresh))

	_, err = stale.Dispatch(entitytest.EventNicknameUpdated, entitytest.NicknameUpdated{Nickname: "Joan"})
	require.NoError(t, err)
	err = repo.Commit(ctx, stale)
	require.ErrorIs(t, err, entity.ErrConcurrencyConflict)
	require.Len(t, stale.QueuedEvents(), 1)

	// cached read serves the committed snapshot readonly
	cached, err := repo.FindOneCached(ctx, "profile-1")
	require.NoError(t, err)
	cachedState, err := cached.State()
	require.NoError(t, err)
	assert.True(t, cachedState.Deactivated)

	concrete, ok := cached.(*entity.Entity[entitytest.Profile])
	require.True(t, ok)
	require.False(t, concrete.Mutable())

	// every committed event reached the plugin, none from the failed commit
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		entitytest.EventCreated,
		entitytest.EventBioUpdated,
		entitytest.EventNicknameUpdated,
		entitytest.EventDeactivated,
	}, published)
}

// TestIntegration_cueProvider runs the same stream through a CUE-validated
// schema instead of the hand-written codec.
func TestIntegration_cueProvider(t *testing.T) {
	ctx := context.Background()

	const source = `
#events: {
	"profile:created": { nickname: string & !="" }
	"profile:nickname_updated": { nickname: string & !="" }
	"profile:bio_updated": { bio?: string }
	"profile:deactivated": {}
}

#state: {
	nickname:     string
	bio?:         string
	deactivated?: bool
}
`

	type profile struct {
		Nickname    string `json:"nickname"`
		Bio         string `json:"bio,omitempty"`
		Deactivated bool   `json:"deactivated,omitempty"`
	}

	provider, err := cueschema.New[profile](source)
	require.NoError(t, err)

	reduce := func(prev profile, ev entity.Event) profile {
		body, _ := ev.Body.(map[string]any)
		switch ev.EventName {
		case "profile:created", "profile:nickname_updated":
			prev.Nickname, _ = body["nickname"].(string)
		case "profile:bio_updated":
			prev.Bio, _ = body["bio"].(string)
		case "profile:deactivated":
			prev.Deactivated = true
		}
		return prev
	}

	schema, err := entity.NewSchema("profile", "created", provider, reduce)
	require.NoError(t, err)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := entity.NewRepository(slog.Default(), schema, db)

	e, err := schema.Create(entity.CreateArgs{
		EntityID: "profile-1",
		Body:     map[string]any{"nickname": "John"},
	})
	require.NoError(t, err)

	// constraint violations never reach the log
	_, err = e.Dispatch("profile:nickname_updated", map[string]any{"nickname": ""})
	require.Error(t, err)

	_, err = e.Dispatch("profile:bio_updated", map[string]any{"bio": "hello"})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, e))

	loaded, err := repo.FindOne(ctx, "profile-1")
	require.NoError(t, err)
	state, err := loaded.State()
	require.NoError(t, err)
	assert.Equal(t, profile{Nickname: "John", Bio: "hello"}, state)
}

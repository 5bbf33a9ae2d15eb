package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyfromundefined/ventyd-sub000/adapters/sqlite"
	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

func TestLoadtest_memory(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"loadtest", "-n", "100", "-b", "10"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func TestLoadtest_unknownBackend(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"loadtest", "--backend", "etcd", "-n", "1"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	schema, err := newCounterSchema()
	require.NoError(t, err)

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	repo := entity.NewRepository(nil, schema, db)

	e, err := schema.Create(entity.CreateArgs{EntityID: "counter-1", Body: counterCreated{}})
	require.NoError(t, err)
	_, err = e.Dispatch("counter:incremented", counterIncremented{By: 2})
	require.NoError(t, err)
	require.NoError(t, repo.Commit(ctx, e))
	require.NoError(t, db.Close())

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dump", "--db", path, "counter", "counter-1"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3) // two events plus the state line
	assert.Contains(t, lines[0], "counter:created")
	assert.Contains(t, lines[1], "counter:incremented")
	assert.Contains(t, lines[2], `"value":2`)
}

func TestDump_missingEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"dump", "--db", path, "counter", "nope"})
	err = cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no events")
}

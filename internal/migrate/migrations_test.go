package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"devteam/internal/db"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	v, err := Version(ctx, conn)
	require.Error(t, err, "schema_version does not exist yet")
	require.Zero(t, v)

	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	latest, err := Latest()
	require.NoError(t, err)
	require.Equal(t, 1, latest)
	v, err = Version(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, latest, v)

	_, err = conn.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,actor_id,tick) VALUES ('t','x','project','engine',3)`)
	require.NoError(t, err)
}

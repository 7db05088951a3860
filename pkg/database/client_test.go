package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
)

func openMemory(t *testing.T) *Client {
	t.Helper()
	c, err := Open(context.Background(), config.StoreConfig{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenSQLite(t *testing.T) {
	c := openMemory(t)
	assert.Equal(t, DriverSQLite, c.Driver())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestBuilderPlaceholders(t *testing.T) {
	build := func(c *Client) string {
		q, _, err := c.Builder().Insert("t").Columns("a", "b").Values(1, 2).ToSql()
		require.NoError(t, err)
		return q
	}
	assert.Equal(t, "INSERT INTO t (a,b) VALUES (?,?)", build(&Client{driver: DriverSQLite}))
	assert.Equal(t, "INSERT INTO t (a,b) VALUES ($1,$2)", build(&Client{driver: DriverPostgres}))
}

func TestInTx(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()
	_, err := c.DB.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES (?, ?)`, "a", 1)
		return err
	}))

	boom := errors.New("boom")
	err = c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES (?, ?)`, "b", 2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n, "failed transaction is rolled back")
}

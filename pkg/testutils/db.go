// Package testutils provides shared helpers for package tests.
package testutils

import (
	"context"
	"database/sql"
	"testing"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/migrations"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB opens a fresh in-memory database, runs all migrations, and tears it
// down with the test.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	return db
}

package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/pkg/config"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		raw, err := migrationFiles.ReadFile(name)
		require.NoError(t, err)
		body := string(raw)
		require.True(t, strings.Contains(body, "-- +goose Up"), name)
		require.True(t, strings.Contains(body, "-- +goose Down"), name)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "reviews", SSLMode: "disable"})
	require.Equal(t, "host=db port=5432 user=u password=p dbname=reviews sslmode=disable", dsn)
}

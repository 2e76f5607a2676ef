package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := fs.ReadFile(FS, entries[0].Name())
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.HasPrefix(text, "-- +goose Up"))
	assert.Contains(t, text, "-- +goose Down")
	for _, table := range []string{"tenants", "users", "food_records", "assessments", "question_answers"} {
		assert.Contains(t, text, "CREATE TABLE "+table+" (")
	}
}

func TestUp_UsesEmbeddedRoot(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return errors.New("stop")
	}

	err := Up(context.Background(), nil)
	require.EqualError(t, err, "stop")
	assert.Equal(t, ".", gotDir)
}

package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLegacyFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPurge_RemovesCredentialKeys(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		"refreshToken": "rt-legacy",
		"accessToken":  "a-legacy",
		"user":         map[string]string{"id": "u1"},
		"theme":        "dark",
	})

	NewLegacyStore(path, nil).Purge(context.Background())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.NotContains(t, doc, "refreshToken")
	require.NotContains(t, doc, "accessToken")
	require.NotContains(t, doc, "user")
	require.Contains(t, doc, "theme", "non-credential keys survive the scrub")
}

func TestPurge_RemovesFileWhenNothingElseRemains(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{"refreshToken": "rt-legacy"})

	NewLegacyStore(path, nil).Purge(context.Background())

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPurge_Idempotent(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		"refreshToken": "rt-legacy",
		"theme":        "dark",
	})
	store := NewLegacyStore(path, nil)
	ctx := context.Background()

	store.Purge(ctx)
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	// second run: no error, no observable change
	require.NotPanics(t, func() { store.Purge(ctx) })
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, string(after), string(again))
}

func TestPurge_MissingFileIsNoOp(t *testing.T) {
	store := NewLegacyStore(filepath.Join(t.TempDir(), "gone.json"), nil)
	require.NotPanics(t, func() { store.Purge(context.Background()) })
}

func TestPurge_UnrecognizedFormatLeftAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o600))

	NewLegacyStore(path, nil).Purge(context.Background())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "not json at all", string(raw))
}

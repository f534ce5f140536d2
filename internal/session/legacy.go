package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/jobseekr/sessionkit/internal/logging"
)

// legacyKeys is the fixed set of credential fields the pre-keychain client
// kept in a plaintext JSON file. They are scrubbed on every startup.
var legacyKeys = []string{"refreshToken", "accessToken", "user"}

// LegacyStore points at the old plaintext credentials file. Purge removes
// the credential keys from it (or the whole file once nothing else remains).
// It is idempotent and silently succeeds when the file is absent or
// unreadable: migration must never block startup.
type LegacyStore struct {
	path string
	log  logging.Logger
}

func NewLegacyStore(path string, log logging.Logger) *LegacyStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &LegacyStore{path: path, log: log}
}

// Purge scrubs legacy credential keys. Safe to call on every startup.
func (l *LegacyStore) Purge(ctx context.Context) {
	if l.path == "" {
		return
	}

	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		l.log.Warn(ctx, "legacy credentials file unreadable, skipping migration", "path", l.path, "error", err)
		return
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		// not a JSON object we recognize; do not touch it
		l.log.Warn(ctx, "legacy credentials file has unexpected format, skipping migration", "path", l.path)
		return
	}

	removed := 0
	for _, k := range legacyKeys {
		if _, ok := doc[k]; ok {
			delete(doc, k)
			removed++
		}
	}
	if removed == 0 {
		return
	}

	if len(doc) == 0 {
		if err := os.Remove(l.path); err != nil {
			l.log.Warn(ctx, "failed to remove legacy credentials file", "path", l.path, "error", err)
		}
		return
	}

	out, err := json.Marshal(doc)
	if err != nil {
		l.log.Warn(ctx, "failed to rewrite legacy credentials file", "path", l.path, "error", err)
		return
	}
	if err := os.WriteFile(l.path, out, 0o600); err != nil {
		l.log.Warn(ctx, "failed to rewrite legacy credentials file", "path", l.path, "error", err)
		return
	}
	l.log.Info(ctx, "scrubbed legacy credentials", "path", l.path, "keys", removed)
}

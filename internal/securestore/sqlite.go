package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/jobseekr/sessionkit/internal/cryptox"
	"github.com/jobseekr/sessionkit/internal/securestore/migrations"
)

const (
	secretFileLen = 48 // 16-byte argon2 salt + 32-byte machine secret
	secretFileMod = 0o600
)

// SQLite is a Storage backed by a local SQLite database with values sealed
// by AES-GCM. It is the fallback for hosts without a usable OS keychain.
// The sealing key is derived from a random machine secret kept in a
// permission-restricted file next to the database.
type SQLite struct {
	db  *sql.DB
	key []byte
}

// OpenSQLite opens (creating if needed) the credential database at dsn and
// the machine secret at secretPath, and applies pending schema migrations.
func OpenSQLite(ctx context.Context, dsn string, secretPath string) (*SQLite, error) {
	key, err := loadOrCreateKey(secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage secret: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate credential db: %w", err)
	}

	return &SQLite{db: db, key: key}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func loadOrCreateKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		raw, err = cryptox.RandBytes(secretFileLen)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, raw, secretFileMod); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if len(raw) != secretFileLen {
		return nil, fmt.Errorf("storage secret %s has unexpected length %d", path, len(raw))
	}
	return cryptox.DeriveKey(raw[16:], raw[:16]), nil
}

func (s *SQLite) Get(ctx context.Context, service, key string) (string, error) {
	var nonce, sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT nonce, value FROM credentials WHERE service = ? AND key = ?`,
		service, key).Scan(&nonce, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential [%s/%s]: %w", service, key, err)
	}

	plain, err := cryptox.Open(sealed, nonce, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to unseal credential [%s/%s]: %w", service, key, err)
	}
	return string(plain), nil
}

func (s *SQLite) Set(ctx context.Context, service, key, value string) error {
	sealed, nonce, err := cryptox.Seal([]byte(value), s.key)
	if err != nil {
		return fmt.Errorf("failed to seal credential [%s/%s]: %w", service, key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (service, key, nonce, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(service, key) DO UPDATE SET nonce = excluded.nonce, value = excluded.value
	`, service, key, nonce, sealed)
	if err != nil {
		return fmt.Errorf("failed to set credential [%s/%s]: %w", service, key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, service, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE service = ? AND key = ?`, service, key)
	if err != nil {
		return fmt.Errorf("failed to remove credential [%s/%s]: %w", service, key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

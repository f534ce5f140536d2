// Package cli implements the sessionctl commands: a small front end over the
// session manager for signing in and out and inspecting session state.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jobseekr/sessionkit/internal/api"
	"github.com/jobseekr/sessionkit/internal/config"
	"github.com/jobseekr/sessionkit/internal/events"
	"github.com/jobseekr/sessionkit/internal/logging"
	"github.com/jobseekr/sessionkit/internal/securestore"
	"github.com/jobseekr/sessionkit/internal/session"
	"github.com/jobseekr/sessionkit/internal/token"
)

type rootOptions struct {
	configPath string
	apiURL     string
	noKeyring  bool
	verbose    bool
}

// app bundles the wired session stack for command handlers.
type app struct {
	cfg *config.Config
	log logging.Logger
	mgr *session.Manager

	close func()
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Manage the Jobseekr client session",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVar(&opts.apiURL, "api-url", "", "auth backend base URL (overrides config)")
	pf.BoolVar(&opts.noKeyring, "no-keyring", false, "use the encrypted file store instead of the OS keychain")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newRefreshCmd(opts),
	)
	return root
}

// newApp wires the full session stack from configuration and flags.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIBaseURL = opts.apiURL
	}
	if opts.noKeyring {
		cfg.UseKeyring = false
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := logging.NewDefault(level)

	var storage securestore.Storage
	closer := func() {}
	if cfg.UseKeyring {
		storage = securestore.NewKeyring()
	} else {
		sqlStore, err := securestore.OpenSQLite(ctx, cfg.StorePath, cfg.SecretPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		storage = sqlStore
		closer = func() { _ = sqlStore.Close() }
	}

	bus := events.NewBus(log)
	cache := token.NewCache(bus)
	creds := securestore.NewCredentialStore(storage, log)
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log)
	coord := session.NewCoordinator(client, cache, creds, bus, log)

	mgr := session.NewManager(session.Deps{
		API:           client,
		Cache:         cache,
		Creds:         creds,
		Coordinator:   coord,
		Bus:           bus,
		Legacy:        session.NewLegacyStore(cfg.LegacyCredentialsPath, log),
		Log:           log,
		LogoutTimeout: cfg.LogoutTimeout,
	})

	return &app{cfg: cfg, log: log, mgr: mgr, close: closer}, nil
}

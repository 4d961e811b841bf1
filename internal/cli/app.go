package cli

import (
	"context"
	"fmt"
	"log/slog"

	"quality-desk/internal/analysis"
	"quality-desk/internal/desk"
	"quality-desk/internal/localcache"
	"quality-desk/internal/remote"
	"quality-desk/pkg/logger"

	"github.com/spf13/cobra"
)

// app is what every command runs against. It is built per invocation and
// closed when the command returns.
type app struct {
	settings Settings
	log      *slog.Logger
	cache    *localcache.Cache
	remote   *remote.Client
	store    *desk.Store
	intake   *desk.Intake
}

func openApp(cmd *cobra.Command) (*app, error) {
	file, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	s, err := LoadSettings(file)
	if err != nil {
		return nil, err
	}
	log := logger.Discard()
	if verbose {
		log = logger.NewWithWriter(cmd.ErrOrStderr(), "dev")
	}

	cache, err := localcache.Open(s.CachePath, log)
	if err != nil {
		return nil, err
	}
	ctx := logger.With(cmd.Context(), log)
	rc := remote.New(s.APIURL, s.Username, s.Password, s.Timeout)
	store := desk.NewStore(ctx, rc, cache, log)

	var analyzer analysis.Analyzer
	if s.OpenAIKey != "" {
		analyzer = analysis.NewOpenAIAnalyzer(s.OpenAIKey, s.OpenAIModel)
	}
	return &app{
		settings: s,
		log:      log,
		cache:    cache,
		remote:   rc,
		store:    store,
		intake:   desk.NewIntake(store, analyzer, s.Timeout),
	}, nil
}

func (a *app) Close() error { return a.cache.Close() }

// run opens the app, hands it to fn and closes it.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return fmt.Errorf("deskctl: %w", err)
	}
	defer a.Close()
	return fn(logger.With(cmd.Context(), a.log), a)
}

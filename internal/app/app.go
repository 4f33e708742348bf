package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/config"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/prefs"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/session"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/ui"
)

// Options configure the minedeck application.
type Options struct {
	ConfigPath string // empty uses default ~/.config/minedeck/config.toml
	Theme      string // empty uses the persisted preference
}

// Run boots the minedeck TUI until the context is cancelled or the player
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info().Str("api_url", cfg.APIURL).Msg("minedeck starting")

	sessions, err := session.Open(cfg.SessionFile)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	client, err := api.NewClient(cfg.APIURL, func() string {
		if sess := sessions.Get(); sess != nil {
			return sess.Token
		}
		return ""
	}, cfg.RequestTimeout, logger)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	ctrl := NewController(ControllerOptions{
		Client: client,
		Probe: func(ctx context.Context, token string) (*api.StateSnapshot, error) {
			return client.WithToken(token).FetchState(ctx)
		},
		Sessions:       sessions,
		Log:            logger,
		PollForeground: cfg.PollForeground,
		PollBackground: cfg.PollBackground,
	})
	ctrl.Start(ctx)
	defer ctrl.Close()

	theme := opts.Theme
	if theme == "" {
		theme = prefs.Load("").Theme
	}

	err = ui.Run(ui.Options{
		Context:    ctx,
		Controller: ctrl,
		ThemeName:  theme,
		OnThemeChange: func(name string) {
			if err := prefs.Save("", prefs.Prefs{Theme: name}); err != nil {
				logger.Warn().Err(err).Msg("save theme preference")
			}
		},
	})
	logger.Info().Msg("minedeck exiting")
	return err
}

// openLogger opens the log file and builds the shared logger. The TUI owns
// stdout, so everything the app logs goes to the file under the data dir.
func openLogger(cfg config.Config) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}

// Controller satisfies the surface the UI renders against.
var _ ui.Controller = (*Controller)(nil)

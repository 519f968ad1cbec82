package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/ui"
)

// Run boots the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := NewEnv(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	prog := ui.NewProgram(uiOptions(ctx, env))

	if env.Config.RefreshInterval > 0 {
		poller := &Poller{
			Target:   env.Issues,
			Auth:     env.Session,
			Interval: env.Config.RefreshInterval,
			Logger:   env.Logger,
			OnUpdate: prog.Refreshed,
		}
		poller.Start(ctx)
	}

	env.Logger.Info("console started", "api_url", env.Config.APIURL, "authenticated", env.Session.IsAuthenticated())
	if err := prog.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	env.Logger.Info("console stopped")
	return nil
}

func uiOptions(ctx context.Context, env *Env) ui.Options {
	return ui.Options{
		Context:   ctx,
		Session:   env.Session,
		Backend:   env.Client,
		Books:     env.Books,
		Issues:    env.Issues,
		Admins:    env.Admins,
		Notices:   env.Notices,
		Login:     env.Login,
		Logout:    env.Logout,
		SavePrefs: env.SavePrefs,
		Prefs:     env.Prefs,
		Config:    env.Config,
		Logger:    env.Logger,
		FetchStats: func(ctx context.Context, p library.Period) (library.Stats, error) {
			return FetchStats(ctx, env.Client, p, time.Now())
		},
	}
}

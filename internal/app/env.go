package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/credstore"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// Options configure an Env.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/shelf/prefs.toml
	APIURL     string // overrides api_url from the config file
	Verbose    bool
	Ephemeral  bool // keep the session in memory only

	// LogWriter replaces the log file, e.g. stderr for verbose CLI runs.
	LogWriter  io.Writer
	// Notifier receives user-facing notices. Nil uses Env.Notices.
	Notifier   notify.Notifier
	HTTPClient *http.Client
}

// Env holds every long-lived collaborator. Nothing in it is global; the
// TUI and the CLI each build one and pass it down.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
	Notices   *notify.Center
	Notifier  notify.Notifier
	Store     credstore.Store
	Session   *session.Manager
	Client    *api.Client
	Books     *state.Collection[library.Book]
	Issues    *state.Issues
	Admins    *state.Admins

	closers []func() error
}

// NewEnv loads configuration and wires the console together.
func NewEnv(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	env := &Env{Config: cfg, PrefsPath: opts.PrefsPath}
	if env.PrefsPath == "" {
		env.PrefsPath = prefs.DefaultPath()
	}

	logger, closeLog, err := newLogger(cfg, opts.LogWriter)
	if err != nil {
		return nil, err
	}
	env.Logger = logger
	if closeLog != nil {
		env.closers = append(env.closers, closeLog)
	}

	userPrefs, err := prefs.Load(env.PrefsPath)
	if err != nil {
		logger.Warn("preferences unreadable, using defaults", "path", env.PrefsPath, "error", err)
	}
	env.Prefs = userPrefs

	if opts.Ephemeral {
		env.Store = credstore.NewMemoryStore(nil)
	} else {
		fs, err := credstore.NewFileStore(cfg.SessionPath)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("open session store: %w", err)
		}
		env.Store = fs
	}
	env.Session = session.New(env.Store, logger)

	env.Notices = notify.NewCenter(0)
	env.Notifier = opts.Notifier
	if env.Notifier == nil {
		env.Notifier = env.Notices
	}

	client, err := api.NewClient(api.Options{
		BaseURL:           cfg.APIURL,
		Session:           env.Session,
		Logger:            logger,
		Timeout:           cfg.RequestTimeout,
		LookupTimeout:     cfg.LookupTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		HTTPClient:        opts.HTTPClient,
	})
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	env.Client = client

	pageSize := cfg.PageSize
	if env.Prefs.PageSize > 0 {
		pageSize = env.Prefs.PageSize
	}
	collCfg := state.Config{
		Auth:     env.Session,
		Notifier: env.Notifier,
		Logger:   logger,
		PageSize: pageSize,
	}
	env.Books = state.NewBooks(client, collCfg)
	env.Issues = state.NewIssues(client, collCfg, nil)
	env.Admins = state.NewAdmins(client, collCfg)

	client.Guard().OnExpired(func() {
		env.Notifier.Notify(notify.LevelError, api.MsgSessionExpired)
	})
	unsubscribe := env.Session.Subscribe(func(s session.State) {
		if !s.Authenticated {
			env.clearData()
		}
	})
	env.closers = append(env.closers, func() error { unsubscribe(); return nil })

	logger.Debug("environment ready",
		"api_url", cfg.APIURL,
		"config", cfg.Path,
		"ephemeral", opts.Ephemeral,
		"authenticated", env.Session.IsAuthenticated(),
	)
	return env, nil
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, func() error, error) {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if w != nil {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(file, handlerOpts)), file.Close, nil
}

func (e *Env) clearData() {
	e.Books.Clear()
	e.Issues.Clear()
	e.Admins.Clear()
}

// ErrSessionNotSaved means the login or logout took effect for this run but
// could not be written to the credential store.
var ErrSessionNotSaved = errors.New("session could not be saved")

// Login authenticates against the API and starts a session.
func (e *Env) Login(ctx context.Context, username, password string) error {
	payload, err := e.Client.Login(ctx, username, password)
	if err != nil {
		e.Logger.Info("login rejected", "username", username, "kind", api.Classify(err).String())
		return err
	}
	if err := e.Session.Login(payload); err != nil {
		if errors.Is(err, session.ErrEmptyToken) {
			return err
		}
		e.Logger.Warn("login not persisted", "error", err)
		return fmt.Errorf("%w: %v", ErrSessionNotSaved, err)
	}
	e.Logger.Info("logged in", "username", username, "role", payload.Role)
	return nil
}

// Logout ends the session. It is safe to call when already logged out.
func (e *Env) Logout() error {
	if err := e.Session.Logout(); err != nil {
		e.Logger.Warn("logout not persisted", "error", err)
		return fmt.Errorf("%w: %v", ErrSessionNotSaved, err)
	}
	e.Logger.Info("logged out")
	return nil
}

// SavePrefs stores p and keeps it as the current preferences.
func (e *Env) SavePrefs(p prefs.Prefs) error {
	if err := prefs.Save(e.PrefsPath, p); err != nil {
		e.Logger.Warn("save preferences failed", "error", err)
		return err
	}
	e.Prefs = p
	return nil
}

// Close releases the log file and session subscription.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

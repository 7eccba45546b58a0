package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/config"
	"github.com/initializ/glewlwyd-console/forms"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/logging"
	"github.com/initializ/glewlwyd-console/registration"
	"github.com/initializ/glewlwyd-console/types"
)

// app holds the services shared by the commands that talk to the server.
type app struct {
	cfg      *types.ConsoleConfig
	log      logging.Logger
	tr       *i18n.Catalog
	bus      *bus.Bus
	client   *api.Client
	closeLog func() error
}

// loadConfig resolves console.yaml, the .env file next to it and the
// environment. An explicit --config must exist; the default may be absent.
func loadConfig(cmd *cobra.Command) (*types.ConsoleConfig, error) {
	environ := os.Environ()
	if apiURL != "" {
		environ = append(environ, config.EnvPrefix+"API_URL="+apiURL)
	}
	return config.Resolve(config.ResolveOptions{
		Path:       cfgFile,
		Required:   cmd.Flags().Changed("config"),
		DotEnvPath: filepath.Join(filepath.Dir(cfgFile), ".env"),
		Environ:    environ,
	})
}

// newApp wires the logger, translator, bus and API client. The TUI owns the
// terminal, so interactive sessions log to log_file only; other commands
// log to stderr when verbose.
func newApp(cmd *cobra.Command, interactive bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	var (
		log      logging.Logger = logging.Nop{}
		closeLog                = func() error { return nil }
	)
	switch {
	case cfg.LogFile != "":
		log, closeLog, err = logging.OpenFile(cfg.LogFile, verbose)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
	case verbose && !interactive:
		log = logging.NewJSONLogger(cmd.ErrOrStderr(), true)
	}
	log = logging.WithFields(log, map[string]any{"command": cmd.CommandPath()})

	tr, err := i18n.NewCatalog(cfg.Language)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	client, err := api.NewClient(api.ClientConfig{
		BaseURL:     cfg.APIURL,
		Token:       cfg.Token,
		TimeoutSecs: cfg.TimeoutSecs,
		Logger:      log,
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	return &app{
		cfg:      cfg,
		log:      log,
		tr:       tr,
		bus:      bus.New(),
		client:   client,
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	_ = a.closeLog()
}

// theme picks the TUI theme from --theme, then the config file.
func (a *app) theme() tui.TermTheme {
	if themeOverride != "" {
		return tui.DetectTheme(themeOverride)
	}
	return tui.DetectTheme(a.cfg.Theme)
}

// links builds the completion links from the config.
func (a *app) links() registration.LinkConfig {
	lc := registration.LinkConfig{
		CallbackURL: a.cfg.CallbackURL,
		ProfileURL:  a.cfg.ProfileURL,
	}
	for _, l := range a.cfg.RegisterComplete {
		lc.RegisterComplete = append(lc.RegisterComplete, registration.Link{Label: l.Label, URL: l.URL})
	}
	return lc
}

// printNotifications writes bus notifications to w until the returned func
// is called.
func printNotifications(b *bus.Bus, w io.Writer) (stop func()) {
	return b.Notification.Subscribe(func(n bus.Notification) {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	})
}

// isTerminal reports whether stdin and stdout are both terminals.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// describe replaces a field error with its translated message.
func describe(tr i18n.Translator, err error) error {
	var fe *forms.FieldError
	if errors.As(err, &fe) {
		return fmt.Errorf("%s: %s", fe.Field, tr.Translate(fe.Key, nil))
	}
	return err
}

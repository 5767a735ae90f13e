package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/transferpeer/peerconnect/config"
	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/catalog"
	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/session"
	"github.com/transferpeer/peerconnect/pkg/httpclient"
	"github.com/transferpeer/peerconnect/pkg/logger"
)

// app carries what every subcommand needs after flags are parsed
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	format string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.NewViper(), out: out, errOut: errOut}
	// Unset flags fall back to env, .env, then these defaults
	a.v.SetDefault("LOG_LEVEL", "warn")

	root := &cobra.Command{
		Use:   "peerctl",
		Short: "Command-line client for Transfer Peer Connect",
		Long: `peerctl drives the same session controller as the web client against a
Transfer Connect backend. Each invocation logs in, runs one operation and exits.

Credentials come from --email/--password or PEERCTL_EMAIL/PEERCTL_PASSWORD.

Examples:
  peerctl catalog colleges
  peerctl login --email ann@kean.edu --password secret
  peerctl search --target "Rowan University" -o json
  peerctl profile save --bio "Transferring in the fall"`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("backend", "", "backend base URL (or BACKEND_BASE_URL)")
	flags.Int("timeout", 0, "backend request timeout in seconds (or BACKEND_TIMEOUT_SECONDS)")
	flags.String("log-level", "warn", "log level written to stderr")
	flags.String("catalog-file", "", "YAML catalog replacing the built-in one (or CATALOG_FILE)")
	flags.String("email", "", "account email (or PEERCTL_EMAIL)")
	flags.String("password", "", "account password (or PEERCTL_PASSWORD)")
	flags.StringVarP(&a.format, "output", "o", "text", "output format: text, json or yaml")

	bindings := map[string]string{
		"BACKEND_BASE_URL":        "backend",
		"BACKEND_TIMEOUT_SECONDS": "timeout",
		"LOG_LEVEL":               "log-level",
		"CATALOG_FILE":            "catalog-file",
		"PEERCTL_EMAIL":           "email",
		"PEERCTL_PASSWORD":        "password",
	}
	for key, name := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newCatalogCmd(a),
		newLoginCmd(a),
		newSignupCmd(a),
		newPasswordCmd(a),
		newProfileCmd(a),
		newSearchCmd(a),
	)
	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	_ = a.v.ReadInConfig() //nolint:errcheck // .env is optional

	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: "development",
		Output:      a.errOut,
	})
}

func (a *app) catalog() (*catalog.Catalog, error) {
	if a.cfg.Catalog.File == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(a.cfg.Catalog.File)
}

func (a *app) controller() (*session.Controller, error) {
	client, err := backend.NewHTTPClient(a.cfg.Backend.BaseURL, httpclient.NewStandardClient(a.cfg.BackendTimeout()))
	if err != nil {
		return nil, err
	}
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return session.NewController(client, session.Options{
		NotificationTTL:   a.cfg.NotificationTTL(),
		SearchSettleDelay: a.cfg.SearchSettleDelay(),
		Catalog:           cat,
	}), nil
}

func (a *app) credentials() models.Credentials {
	return models.Credentials{
		Email:    a.v.GetString("PEERCTL_EMAIL"),
		Password: a.v.GetString("PEERCTL_PASSWORD"),
	}
}

// login authenticates a fresh controller with the configured credentials
func (a *app) login(ctx context.Context) (*session.Controller, error) {
	ctrl, err := a.controller()
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.Authenticate(ctx, models.AuthModeLogin, a.credentials(), models.ProfileFields{}); err != nil {
		return nil, failure(ctrl, err)
	}
	return ctrl, nil
}

// failure prefers the user-facing notification over the raw error
func failure(ctrl *session.Controller, err error) error {
	if err == nil {
		return nil
	}
	if n := ctrl.View().Notification; n != nil && n.Kind == models.NotificationError {
		return errors.New(n.Message)
	}
	if errors.Is(err, session.ErrWrongPage) {
		return fmt.Errorf("operation not available for this account")
	}
	return err
}

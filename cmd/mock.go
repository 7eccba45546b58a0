package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/initializ/glewlwyd-console/logging"
	"github.com/initializ/glewlwyd-console/mockserver"
	"github.com/initializ/glewlwyd-console/plugin"
	"github.com/initializ/glewlwyd-console/registration"
)

var mockServerCmd = newMockServerCmd()

func newMockServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory registration and plugin API for local testing",
		Args:  cobra.NoArgs,
		RunE:  runMockServer,
	}
	f := cmd.Flags()
	f.String("addr", "127.0.0.1:4593", "listen address")
	f.String("plugin", "register", "registration plugin path segment")
	f.StringSlice("taken", nil, "usernames that already exist")
	f.String("code", mockserver.DefaultCode, "verification code every e-mail receives")
	f.String("set-password", string(registration.RequirementAlways), "password requirement: no, optional, or always")
	f.Bool("verify-email", false, "require e-mail verification")
	f.Bool("email-is-username", false, "use the e-mail as the username")
	f.StringSlice("languages", []string{"en", "fr"}, "verification e-mail languages")
	f.StringSlice("schemes", nil, "mandatory authentication schemes")
	f.String("admin-token", "", "bearer token required on /mod endpoints")
	return cmd
}

// mockOptions maps the mock-server flags onto server options.
func mockOptions(cmd *cobra.Command) (mockserver.Options, error) {
	f := cmd.Flags()
	var opts mockserver.Options
	opts.Plugin, _ = f.GetString("plugin")
	opts.Taken, _ = f.GetStringSlice("taken")
	opts.Code, _ = f.GetString("code")
	opts.AdminToken, _ = f.GetString("admin-token")

	setPassword, _ := f.GetString("set-password")
	switch req := registration.Requirement(setPassword); req {
	case registration.RequirementNo, registration.RequirementOptional, registration.RequirementAlways:
		opts.Config.SetPassword = req
	default:
		return opts, fmt.Errorf("--set-password must be no, optional or always, got %q", setPassword)
	}
	opts.Config.VerifyEmail, _ = f.GetBool("verify-email")
	opts.Config.EmailIsUsername, _ = f.GetBool("email-is-username")
	opts.Config.Languages, _ = f.GetStringSlice("languages")
	schemes, _ := f.GetStringSlice("schemes")
	for _, name := range schemes {
		opts.Config.Schemes = append(opts.Config.Schemes, registration.Scheme{Name: name, Register: registration.RequirementAlways})
	}

	catalog, err := plugin.NewCatalog()
	if err != nil {
		return opts, err
	}
	opts.Types = catalog.Types()
	return opts, nil
}

func runMockServer(cmd *cobra.Command, _ []string) error {
	opts, err := mockOptions(cmd)
	if err != nil {
		return err
	}
	opts.Logger = logging.NewJSONLogger(cmd.ErrOrStderr(), verbose).With(map[string]any{"component": "mock-server"})
	addr, _ := cmd.Flags().GetString("addr")

	ctx, cancel := signalContext()
	defer cancel()

	srv := mockserver.New(opts)
	return srv.Run(ctx, addr, func(bound string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Mock server listening on http://%s\n", bound)
		fmt.Fprintf(cmd.OutOrStdout(), "  api_url: http://%s\n", bound)
	})
}

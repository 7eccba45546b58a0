package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/screens"
	"github.com/initializ/glewlwyd-console/registration"
)

// scriptedDebounce shortens the availability delay when no one is typing.
const scriptedDebounce = 10 * time.Millisecond

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the identity server",
	Long: "register runs the self-registration wizard. Without a terminal, or with " +
		"--non-interactive, the account is created from flags instead.",
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().Bool("non-interactive", false, "register from flags without the wizard")
	registerCmd.Flags().String("username", "", "username to register")
	registerCmd.Flags().String("email", "", "e-mail address")
	registerCmd.Flags().String("password", "", "account password")
	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("code", "", "verification code; read from stdin when missing")
	registerCmd.Flags().String("lang", "", "verification e-mail language")
}

// registerOptions holds the non-interactive registration inputs.
type registerOptions struct {
	Username string
	Email    string
	Password string
	Name     string
	Code     string
	Language string
}

func runRegister(cmd *cobra.Command, _ []string) error {
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	interactive := !nonInteractive && isTerminal()

	a, err := newApp(cmd, interactive)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	opts := registration.FlowOptions{
		Remote:            registration.NewHTTPRemote(a.client, a.cfg.RegisterPlugin),
		Bus:               a.bus,
		Translator:        a.tr,
		Logger:            a.log,
		Debounce:          time.Duration(a.cfg.DebounceMS) * time.Millisecond,
		PasswordMinLength: a.cfg.PasswordMinLength,
		CallbackURL:       a.cfg.CallbackURL,
		Language:          a.cfg.Language,
		Context:           ctx,
	}

	if !interactive {
		var ro registerOptions
		ro.Username, _ = cmd.Flags().GetString("username")
		ro.Email, _ = cmd.Flags().GetString("email")
		ro.Password, _ = cmd.Flags().GetString("password")
		ro.Name, _ = cmd.Flags().GetString("name")
		ro.Code, _ = cmd.Flags().GetString("code")
		ro.Language, _ = cmd.Flags().GetString("lang")

		opts.Debounce = scriptedDebounce
		flow := registration.NewFlow(opts)
		defer flow.Close()
		stop := printNotifications(a.bus, cmd.ErrOrStderr())
		defer stop()
		return registerNonInteractive(ctx, flow, a.tr, a.links(), ro, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	flow := registration.NewFlow(opts)
	defer flow.Close()
	result, err := screens.RunRegistration(ctx, screens.RegistrationOptions{
		Flow:       flow,
		Translator: a.tr,
		Links:      a.links(),
		Theme:      a.theme(),
		Version:    appVersion,
	})
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Registration paused. Run register again to resume.")
		return nil
	}
	if err != nil {
		return err
	}
	if result.Finished {
		fmt.Fprintf(cmd.OutOrStdout(), "Account %s registered.\n", result.Username)
	}
	return nil
}

// registerNonInteractive drives the flow the way the wizard would: pick the
// identifier, verify the e-mail or register directly, save the profile and
// finalize.
func registerNonInteractive(ctx context.Context, flow *registration.Flow, tr i18n.Translator, links registration.LinkConfig, opts registerOptions, in io.Reader, out io.Writer) error {
	if err := flow.Load(ctx); err != nil {
		return fmt.Errorf("loading registration: %w", err)
	}
	st := flow.State()
	cfg := st.Config

	if st.Phase() == registration.PhaseAccount {
		if err := createAccount(ctx, flow, tr, opts, in, out); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Resuming registration of %s\n", st.Profile.Username)
	}

	if opts.Name != "" {
		flow.EditName(opts.Name)
	}
	if opts.Password != "" && cfg.SetPassword != registration.RequirementNo {
		if !flow.State().PasswordEditable() {
			flow.RequestPasswordChange()
		}
		flow.EditPassword(opts.Password, opts.Password)
		if key := flow.State().PasswordError; key != "" {
			return fmt.Errorf("password: %s", tr.Translate(key, map[string]any{"car": flow.PasswordMinLength()}))
		}
	}
	if opts.Name != "" || opts.Password != "" {
		if err := flow.SaveProfile(ctx); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
	}

	if err := flow.Finalize(ctx); err != nil {
		if errors.Is(err, registration.ErrPendingSteps) {
			for _, step := range flow.State().PendingSteps() {
				fmt.Fprintf(out, "  pending: %s\n", pendingLabel(tr, step))
			}
		}
		return fmt.Errorf("finalizing registration: %w", err)
	}

	st = flow.State()
	fmt.Fprintf(out, "✓ %s\n", tr.Translate("profile.register-profile-complete-message", nil))
	for _, l := range registration.CompletionLinks(links, st.Profile) {
		fmt.Fprintf(out, "  %s: %s\n", tr.Translate(l.Label, nil), l.URL)
	}
	return nil
}

func createAccount(ctx context.Context, flow *registration.Flow, tr i18n.Translator, opts registerOptions, in io.Reader, out io.Writer) error {
	cfg := flow.State().Config

	if opts.Language != "" {
		flow.SelectLanguage(opts.Language)
	}

	if cfg.EmailIsUsername {
		if opts.Email == "" {
			return errors.New("--email is required: the e-mail is the username")
		}
		if err := checkIdentifier(ctx, flow, tr, flow.EditEmail, opts.Email); err != nil {
			return err
		}
	} else {
		if opts.Username == "" {
			return errors.New("--username is required")
		}
		if err := checkIdentifier(ctx, flow, tr, flow.EditUsername, opts.Username); err != nil {
			return err
		}
		if cfg.VerifyEmail {
			if opts.Email == "" {
				return errors.New("--email is required: the server verifies e-mail addresses")
			}
			flow.EditEmail(opts.Email)
		}
	}

	if !cfg.VerifyEmail {
		if err := flow.RegisterUsername(ctx); err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		fmt.Fprintf(out, "Registered %s\n", flow.State().Profile.Username)
		return nil
	}

	if err := flow.SendVerification(ctx); err != nil {
		return fmt.Errorf("sending verification: %w", err)
	}
	code := opts.Code
	if code == "" {
		fmt.Fprintf(out, "%s: ", tr.Translate("profile.register-profile-email-sent", map[string]any{"email": flow.State().Email.Value}))
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading verification code: %w", err)
		}
		code = strings.TrimSpace(line)
	}
	flow.EditCode(code)
	if err := flow.VerifyCode(ctx); err != nil {
		return fmt.Errorf("verifying code: %w", describe(tr, err))
	}
	fmt.Fprintf(out, "Registered %s\n", flow.State().Profile.Username)
	return nil
}

// checkIdentifier edits the identifier and waits for its availability check.
func checkIdentifier(ctx context.Context, flow *registration.Flow, tr i18n.Translator, edit func(string), value string) error {
	resolved := make(chan registration.IdentifierState, 1)
	settled := func(id registration.IdentifierState) bool {
		return id.Value == value && id.Status != registration.CheckChecking && !id.Suggesting
	}
	stop := flow.Observe(func(st registration.State) {
		if id := st.Identifier(); settled(id) {
			select {
			case resolved <- id:
			default:
			}
		}
	})
	defer stop()

	edit(value)
	id := flow.State().Identifier()
	if !settled(id) {
		select {
		case id = <-resolved:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	switch id.Status {
	case registration.CheckValid:
		return nil
	case registration.CheckInvalid:
		msg := tr.Translate("profile.register-username-error", nil)
		if id.Suggestion != "" {
			msg += " (" + tr.Translate("profile.register-username-suggestion", map[string]any{"username": id.Suggestion}) + ")"
		}
		return fmt.Errorf("%s: %s", value, msg)
	default:
		return fmt.Errorf("%s: availability could not be checked", value)
	}
}

func pendingLabel(tr i18n.Translator, step registration.StepDescriptor) string {
	if step.Kind == registration.StepPassword {
		return tr.Translate("profile.register-profile-complete-step-password", nil)
	}
	return tr.Translate("profile.register-profile-complete-step-scheme", map[string]any{"scheme": step.DisplayName})
}

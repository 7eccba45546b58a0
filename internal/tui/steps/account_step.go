package steps

import (
	"context"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/registration"
)

// Registration bundles what the registration steps share.
type Registration struct {
	Flow  *registration.Flow
	Tr    i18n.Translator
	Ctx   context.Context
	Links registration.LinkConfig
}

type accountPhase int

const (
	accountIdentifierPhase accountPhase = iota
	accountEmailPhase
	accountCodePhase
)

const (
	opRegister = "register"
	opSendCode = "send-verification"
	opVerify   = "verify-code"
)

// AccountStep picks the username or e-mail, checks its availability and,
// when the server verifies e-mails, sends and confirms the one-time code.
type AccountStep struct {
	styles     *tui.StyleSet
	reg        Registration
	phase      accountPhase
	identifier components.TextInput
	email      components.TextInput
	code       components.TextInput
	busy       bool
	complete   bool
}

// NewAccountStep creates the account step. The flow must be loaded.
func NewAccountStep(styles *tui.StyleSet, reg Registration) *AccountStep {
	s := &AccountStep{styles: styles, reg: reg}
	s.Reset()
	return s
}

// Reset rebuilds the inputs for a fresh registration.
func (s *AccountStep) Reset() {
	tr := s.reg.Tr
	cfg := s.reg.Flow.State().Config

	if cfg.EmailIsUsername {
		s.identifier = newTextInput(s.styles, tr.Translate("profile.register-email-ph", nil), "name@example.com", nil)
	} else {
		s.identifier = newTextInput(s.styles, tr.Translate("profile.register-username-label", nil), tr.Translate("profile.register-username-ph", nil), nil)
	}
	s.identifier.SetBindings(s.identifierHints(cfg))

	s.email = newTextInput(s.styles, tr.Translate("profile.register-email-ph", nil), "name@example.com", nil)
	s.email.SetBindings([]components.KeyBinding{
		{Key: "⏎", Desc: tr.Translate("profile.register-profile-verify-email", nil)},
		{Key: "shift+tab", Desc: "username"},
		{Key: "esc", Desc: "quit"},
	})
	s.email.Blur()

	s.code = newTextInput(s.styles, tr.Translate("profile.register-code-ph", nil), "123456", nil)
	s.code.SetBindings([]components.KeyBinding{
		{Key: "⏎", Desc: tr.Translate("profile.register-profile-verify-code", nil)},
		{Key: "backspace", Desc: tr.Translate("profile.register-profile-reverify-email", nil)},
		{Key: "esc", Desc: "quit"},
	})
	s.code.Blur()

	s.phase = accountIdentifierPhase
	s.busy = false
	s.complete = false
	s.refresh()
}

func (s *AccountStep) identifierHints(cfg registration.Config) []components.KeyBinding {
	hints := []components.KeyBinding{{Key: "⏎", Desc: s.reg.Tr.Translate("profile.register-username-create", nil)}}
	if cfg.VerifyEmail {
		hints[0].Desc = s.reg.Tr.Translate("profile.register-profile-verify-email", nil)
	}
	if !cfg.EmailIsUsername {
		hints = append(hints, components.KeyBinding{Key: "tab", Desc: "use suggestion"})
	}
	if cfg.VerifyEmail && len(cfg.Languages) > 1 {
		hints = append(hints, components.KeyBinding{Key: "ctrl+l", Desc: "language"})
	}
	return append(hints, components.KeyBinding{Key: "esc", Desc: "quit"})
}

func (s *AccountStep) Title() string { return s.reg.Tr.Translate("profile.register-title", nil) }
func (s *AccountStep) Icon() string  { return "👤" }

func (s *AccountStep) Init() tea.Cmd {
	// A session resumed with a profile skips straight to the profile.
	if s.reg.Flow.State().Phase() != registration.PhaseAccount {
		s.complete = true
		return complete
	}
	s.complete = false
	return s.focus(s.phase)
}

func (s *AccountStep) focus(p accountPhase) tea.Cmd {
	s.phase = p
	s.identifier.Blur()
	s.email.Blur()
	s.code.Blur()
	switch p {
	case accountEmailPhase:
		return tea.Batch(s.email.Focus(), s.email.Init())
	case accountCodePhase:
		return tea.Batch(s.code.Focus(), s.code.Init())
	default:
		return tea.Batch(s.identifier.Focus(), s.identifier.Init())
	}
}

func (s *AccountStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	switch msg := msg.(type) {
	case tui.StateChangedMsg:
		s.refresh()
		return s, nil
	case tui.OpResultMsg:
		return s.handleResult(msg)
	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		if msg.String() == "ctrl+l" {
			s.cycleLanguage()
			return s, nil
		}
	}

	switch s.phase {
	case accountEmailPhase:
		return s.updateEmailPhase(msg)
	case accountCodePhase:
		return s.updateCodePhase(msg)
	default:
		return s.updateIdentifierPhase(msg)
	}
}

func (s *AccountStep) updateIdentifierPhase(msg tea.Msg) (tui.Step, tea.Cmd) {
	flow := s.reg.Flow
	cfg := flow.State().Config

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "tab" {
		if !cfg.EmailIsUsername && flow.SelectSuggestion() {
			s.identifier.SetValue(flow.State().Username.Value)
			s.refresh()
			return s, nil
		}
		if cfg.VerifyEmail && !cfg.EmailIsUsername {
			return s, s.focus(accountEmailPhase)
		}
		return s, nil
	}

	before := s.identifier.Value()
	updated, cmd := s.identifier.Update(msg)
	s.identifier = updated
	if v := s.identifier.Value(); v != before {
		if cfg.EmailIsUsername {
			flow.EditEmail(v)
		} else {
			flow.EditUsername(v)
		}
		s.refresh()
	}

	if !s.identifier.Done() {
		return s, cmd
	}
	s.identifier.Reset()

	st := flow.State()
	switch {
	case !cfg.VerifyEmail && st.CanRegister():
		s.busy = true
		return s, runOp(opRegister, func() error { return flow.RegisterUsername(s.reg.Ctx) })
	case cfg.VerifyEmail && cfg.EmailIsUsername && st.CanSendVerification():
		s.busy = true
		return s, runOp(opSendCode, func() error { return flow.SendVerification(s.reg.Ctx) })
	case cfg.VerifyEmail && !cfg.EmailIsUsername && st.Username.Status == registration.CheckValid:
		return s, s.focus(accountEmailPhase)
	}
	s.identifier.SetError(s.statusText(st.Identifier()))
	return s, cmd
}

func (s *AccountStep) updateEmailPhase(msg tea.Msg) (tui.Step, tea.Cmd) {
	flow := s.reg.Flow

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "shift+tab" {
		return s, s.focus(accountIdentifierPhase)
	}

	before := s.email.Value()
	updated, cmd := s.email.Update(msg)
	s.email = updated
	if v := s.email.Value(); v != before {
		flow.EditEmail(v)
	}

	if !s.email.Done() {
		return s, cmd
	}
	s.email.Reset()

	st := flow.State()
	if !st.CanSendVerification() {
		if st.Email.Value == "" {
			s.email.SetError(s.reg.Tr.Translate("profile.register-email-error", nil))
		} else {
			s.email.SetError(s.statusText(st.Username))
		}
		return s, cmd
	}
	s.busy = true
	return s, runOp(opSendCode, func() error { return flow.SendVerification(s.reg.Ctx) })
}

func (s *AccountStep) updateCodePhase(msg tea.Msg) (tui.Step, tea.Cmd) {
	flow := s.reg.Flow

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "backspace" && s.code.Value() == "" {
		if flow.State().Config.EmailIsUsername {
			return s, s.focus(accountIdentifierPhase)
		}
		return s, s.focus(accountEmailPhase)
	}

	before := s.code.Value()
	updated, cmd := s.code.Update(msg)
	s.code = updated
	if v := s.code.Value(); v != before {
		flow.EditCode(v)
	}

	if !s.code.Done() {
		return s, cmd
	}
	s.code.Reset()
	flow.EditCode(s.code.Value())
	s.busy = true
	return s, runOp(opVerify, func() error { return flow.VerifyCode(s.reg.Ctx) })
}

func (s *AccountStep) handleResult(msg tui.OpResultMsg) (tui.Step, tea.Cmd) {
	s.busy = false
	switch msg.Op {
	case opRegister:
		if msg.Err == nil {
			s.complete = true
			return s, complete
		}
		s.identifier.SetError(fieldMessage(s.reg.Tr, msg.Err))
	case opSendCode:
		if msg.Err == nil {
			s.code.SetValue("")
			return s, s.focus(accountCodePhase)
		}
	case opVerify:
		if msg.Err == nil {
			s.complete = true
			return s, complete
		}
		s.code.SetError(fieldMessage(s.reg.Tr, msg.Err))
	}
	return s, nil
}

func (s *AccountStep) cycleLanguage() {
	st := s.reg.Flow.State()
	langs := st.Config.Languages
	if !st.Config.VerifyEmail || len(langs) < 2 {
		return
	}
	next := (slices.Index(langs, st.Language) + 1) % len(langs)
	s.reg.Flow.SelectLanguage(langs[next])
}

// refresh mirrors the availability status into the identifier hint.
func (s *AccountStep) refresh() {
	s.identifier.SetHint(s.statusText(s.reg.Flow.State().Identifier()))
}

func (s *AccountStep) statusText(id registration.IdentifierState) string {
	tr := s.reg.Tr
	switch id.Status {
	case registration.CheckChecking:
		return "… " + tr.Translate("profile.register-username-checking", nil)
	case registration.CheckValid:
		return "✓ " + tr.Translate("profile.register-username-valid", nil)
	case registration.CheckInvalid:
		text := "✗ " + tr.Translate("profile.register-username-error", nil)
		if id.Suggestion != "" {
			text += " · " + tr.Translate("profile.register-username-suggestion", map[string]any{"username": id.Suggestion}) + " (tab)"
		} else if id.Suggesting {
			text += " · …"
		}
		return text
	default:
		return tr.Translate("profile.register-username-empty", nil)
	}
}

func (s *AccountStep) View(width int) string {
	st := s.reg.Flow.State()
	var out string

	switch s.phase {
	case accountCodePhase:
		out += "  " + s.styles.SecondaryTxt.Render(
			s.reg.Tr.Translate("profile.register-profile-email-sent", map[string]any{"email": st.Email.Value})) + "\n"
		out += s.code.View(width)
	case accountEmailPhase:
		out += "  " + s.styles.SummaryKey.Render(s.identifier.Label) + s.styles.SummaryValue.Render(st.Username.Value) + "\n"
		out += s.email.View(width)
	default:
		out += s.identifier.View(width)
	}

	if st.Config.VerifyEmail && st.Language != "" {
		out += "\n  " + s.styles.DimTxt.Render(fmt.Sprintf("Language: %s", st.Language)) + "\n"
	}
	if s.busy {
		out += "\n  " + s.styles.AccentTxt.Render(working) + "\n"
	}
	return out
}

func (s *AccountStep) Complete() bool {
	return s.complete
}

func (s *AccountStep) Summary() string {
	st := s.reg.Flow.State()
	if st.Profile != nil {
		return st.Profile.Username
	}
	return st.Identifier().Value
}

func (s *AccountStep) Apply(ctx *tui.WizardContext) {
	st := s.reg.Flow.State()
	ctx.Username = st.Identifier().Value
	if st.Profile != nil {
		ctx.Username = st.Profile.Username
		ctx.Email = st.Profile.Email
	}
	if ctx.Email == "" {
		ctx.Email = st.Email.Value
	}
	ctx.Language = st.Language
}

package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/registration"
)

const opSaveProfile = "save-profile"

const (
	focusName = iota
	focusPassword
	focusConfirm
)

// ProfileStep edits the display name and the password of the new account.
type ProfileStep struct {
	styles   *tui.StyleSet
	reg      Registration
	name     components.TextInput
	password components.SecretInput
	confirm  components.SecretInput
	focused  int
	busy     bool
	saveErr  string
	complete bool
}

// NewProfileStep creates the profile step.
func NewProfileStep(styles *tui.StyleSet, reg Registration) *ProfileStep {
	s := &ProfileStep{styles: styles, reg: reg}
	s.Reset()
	return s
}

// Reset rebuilds the inputs.
func (s *ProfileStep) Reset() {
	tr := s.reg.Tr
	minLen := map[string]any{"car": s.reg.Flow.PasswordMinLength()}

	s.name = newTextInput(s.styles, tr.Translate("profile.register-name-ph", nil), tr.Translate("profile.register-name-ph", nil), nil)
	s.name.SetBindings(s.hints())
	s.password = newSecretInput(s.styles, tr.Translate("profile.register-password-label", nil), tr.Translate("profile.register-password-ph", minLen))
	s.password.SetBindings(s.hints())
	s.confirm = newSecretInput(s.styles, tr.Translate("profile.register-confirm-password-ph", nil), tr.Translate("profile.register-confirm-password-ph", nil))
	s.confirm.SetBindings(s.hints())
	s.confirm.SuccessText = "✓"
	s.focused = focusName
	s.busy = false
	s.saveErr = ""
	s.complete = false
}

func (s *ProfileStep) hints() []components.KeyBinding {
	return []components.KeyBinding{
		{Key: "tab", Desc: "next field"},
		{Key: "⏎", Desc: s.reg.Tr.Translate("save", nil)},
		{Key: "ctrl+p", Desc: "change password"},
		{Key: "ctrl+x", Desc: s.reg.Tr.Translate("profile.register-profile-cancel", nil)},
		{Key: "esc", Desc: "quit"},
	}
}

// Prepare loads the saved profile into the inputs.
func (s *ProfileStep) Prepare(_ *tui.WizardContext) {
	st := s.reg.Flow.State()
	if st.Profile != nil {
		s.name.SetValue(st.Profile.Name)
	}
	s.password.SetValue("")
	s.confirm.SetValue("")
	s.syncPasswordState(st)
}

func (s *ProfileStep) Title() string { return s.reg.Tr.Translate("profile.register-profile-create", nil) }
func (s *ProfileStep) Icon() string  { return "🪪" }

func (s *ProfileStep) Init() tea.Cmd {
	if s.reg.Flow.State().Phase() == registration.PhaseComplete {
		s.complete = true
		return complete
	}
	s.complete = false
	return s.setFocus(focusName)
}

func (s *ProfileStep) fields() []int {
	if s.reg.Flow.State().PasswordEditable() {
		return []int{focusName, focusPassword, focusConfirm}
	}
	return []int{focusName}
}

func (s *ProfileStep) setFocus(f int) tea.Cmd {
	s.focused = f
	s.name.Blur()
	s.password.Blur()
	s.confirm.Blur()
	switch f {
	case focusPassword:
		return s.password.Focus()
	case focusConfirm:
		return s.confirm.Focus()
	default:
		return s.name.Focus()
	}
}

func (s *ProfileStep) cycle(delta int) tea.Cmd {
	fields := s.fields()
	idx := 0
	for i, f := range fields {
		if f == s.focused {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	return s.setFocus(fields[idx])
}

func (s *ProfileStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}
	flow := s.reg.Flow

	switch msg := msg.(type) {
	case tui.StateChangedMsg:
		st := flow.State()
		if st.Phase() == registration.PhaseAccount {
			return s, nil
		}
		s.syncPasswordState(st)
		return s, nil

	case tui.OpResultMsg:
		if msg.Op != opSaveProfile {
			return s, nil
		}
		s.busy = false
		st := flow.State()
		s.password.SetValue(st.Password)
		s.confirm.SetValue(st.PasswordConfirm)
		s.syncPasswordState(st)
		if msg.Err != nil {
			s.saveErr = s.reg.Tr.Translate("admin.error-input", nil)
			return s, s.setFocus(focusName)
		}
		s.complete = true
		return s, complete

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.cycle(1)
		case "shift+tab", "up":
			return s, s.cycle(-1)
		case "ctrl+p":
			flow.RequestPasswordChange()
			s.syncPasswordState(flow.State())
			return s, nil
		case "ctrl+x":
			flow.RequestCancel()
			return s, nil
		case "enter":
			return s, s.save()
		}
	}

	var cmd tea.Cmd
	switch s.focused {
	case focusPassword, focusConfirm:
		if s.focused == focusPassword {
			s.password, cmd = s.password.Update(msg)
		} else {
			s.confirm, cmd = s.confirm.Update(msg)
		}
		st := flow.State()
		if s.password.Value() != st.Password || s.confirm.Value() != st.PasswordConfirm {
			flow.EditPassword(s.password.Value(), s.confirm.Value())
			s.syncPasswordState(flow.State())
		}
	default:
		s.name, cmd = s.name.Update(msg)
		if st := flow.State(); st.Profile != nil && s.name.Value() != st.Profile.Name {
			flow.EditName(s.name.Value())
		}
	}
	return s, cmd
}

func (s *ProfileStep) save() tea.Cmd {
	st := s.reg.Flow.State()
	if st.PasswordError != "" {
		return s.setFocus(focusPassword)
	}
	s.busy = true
	s.saveErr = ""
	flow := s.reg.Flow
	return runOp(opSaveProfile, func() error { return flow.SaveProfile(s.reg.Ctx) })
}

// syncPasswordState reflects the password check on the confirm input.
func (s *ProfileStep) syncPasswordState(st registration.State) {
	switch {
	case st.PasswordError != "":
		msg := s.reg.Tr.Translate(st.PasswordError, map[string]any{"car": s.reg.Flow.PasswordMinLength()})
		s.confirm.SetState(components.SecretInputFailed, msg)
	case st.Password != "" && st.Password == st.PasswordConfirm:
		s.confirm.SetState(components.SecretInputValidated, "")
	default:
		s.confirm.SetState(components.SecretInputEditing, "")
	}
}

func (s *ProfileStep) View(width int) string {
	st := s.reg.Flow.State()
	tr := s.reg.Tr
	var out string

	if st.Profile != nil {
		out += "  " + s.styles.SummaryKey.Render(tr.Translate("profile.register-username-label", nil)) +
			s.styles.SummaryValue.Render(st.Profile.Username) + "\n"
	}
	out += s.name.View(width)

	switch {
	case st.Config.SetPassword == registration.RequirementNo:
	case st.PasswordEditable():
		out += s.password.View(width)
		out += s.confirm.View(width)
	default:
		out += "\n  " + s.styles.SuccessTxt.Render("✓ "+tr.Translate("profile.register-password-set-ph", nil)) +
			"  " + s.styles.DimTxt.Render("(ctrl+p)") + "\n"
	}

	if s.saveErr != "" {
		out += "\n  " + s.styles.ErrorTxt.Render("✗ "+s.saveErr) + "\n"
	}
	if s.busy {
		out += "\n  " + s.styles.AccentTxt.Render(working) + "\n"
	}
	return out
}

func (s *ProfileStep) Complete() bool {
	return s.complete
}

func (s *ProfileStep) Summary() string {
	st := s.reg.Flow.State()
	if st.Profile == nil {
		return ""
	}
	if st.Profile.Name != "" {
		return st.Profile.Name
	}
	return st.Profile.Username
}

func (s *ProfileStep) Apply(ctx *tui.WizardContext) {
	if p := s.reg.Flow.State().Profile; p != nil {
		ctx.Name = p.Name
		ctx.Username = p.Username
	}
}

package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/registration"
)

const (
	opFinalize = "finalize"
	opReload   = "reload"
)

// CompleteStep lists the outstanding mandatory steps, finalizes the
// registration and then shows where to go next.
type CompleteStep struct {
	styles   *tui.StyleSet
	reg      Registration
	account  []components.Field
	kbd      components.KbdHint
	busy     bool
	complete bool
}

// NewCompleteStep creates the completion step.
func NewCompleteStep(styles *tui.StyleSet, reg Registration) *CompleteStep {
	return &CompleteStep{
		styles: styles,
		reg:    reg,
		kbd:    components.NewKbdHint(styles.KbdKey, styles.KbdDesc),
	}
}

// Reset clears the finished state.
func (s *CompleteStep) Reset() {
	s.busy = false
	s.complete = false
}

// Prepare collects the account fields from the wizard context.
func (s *CompleteStep) Prepare(ctx *tui.WizardContext) {
	s.complete = false
	tr := s.reg.Tr
	s.account = []components.Field{
		{Label: tr.Translate("profile.register-username-label", nil), Value: ctx.Username},
		{Label: tr.Translate("profile.register-name-ph", nil), Value: ctx.Name},
		{Label: tr.Translate("profile.register-email-ph", nil), Value: ctx.Email},
		{Label: "Language", Value: ctx.Language},
	}
}

// summary adds the password status to the account fields. A missing
// mandatory password is flagged inline.
func (s *CompleteStep) summary(st registration.State) components.FieldSummary {
	fields := append([]components.Field(nil), s.account...)
	if st.Config.SetPassword != registration.RequirementNo {
		pw := components.Field{Label: s.reg.Tr.Translate("profile.register-password-label", nil), Value: "not set"}
		if st.Profile != nil && st.Profile.PasswordSet {
			pw.Value = "set"
		}
		for _, step := range st.PendingSteps() {
			if step.Kind == registration.StepPassword {
				pw.Err = s.stepLabel(step)
			}
		}
		fields = append(fields, pw)
	}
	return components.NewFieldSummary(fields, s.styles.SummaryKey, s.styles.SummaryValue, s.styles.ErrorTxt, s.styles.BorderedBox)
}

func (s *CompleteStep) Title() string {
	return s.reg.Tr.Translate("profile.register-profile-complete", nil)
}
func (s *CompleteStep) Icon() string { return "🏁" }

func (s *CompleteStep) Init() tea.Cmd {
	return nil
}

func (s *CompleteStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}
	flow := s.reg.Flow

	switch msg := msg.(type) {
	case tui.OpResultMsg:
		if msg.Op == opFinalize || msg.Op == opReload {
			s.busy = false
		}
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		st := flow.State()
		if st.Complete {
			if msg.String() == "enter" {
				s.complete = true
				return s, complete
			}
			return s, nil
		}
		switch msg.String() {
		case "enter":
			if !st.CanFinalize() {
				return s, nil
			}
			s.busy = true
			return s, runOp(opFinalize, func() error { return flow.Finalize(s.reg.Ctx) })
		case "r":
			s.busy = true
			return s, runOp(opReload, func() error { return flow.Reload(s.reg.Ctx) })
		case "ctrl+x":
			flow.RequestCancel()
		case "backspace":
			return s, back
		}
	}
	return s, nil
}

func (s *CompleteStep) View(width int) string {
	st := s.reg.Flow.State()
	tr := s.reg.Tr
	out := s.summary(st).View(width) + "\n\n"

	if st.Complete {
		out += "  " + s.styles.SuccessTxt.Render("✓ "+tr.Translate("profile.register-profile-complete-message", nil)) + "\n\n"
		for _, l := range registration.CompletionLinks(s.reg.Links, st.Profile) {
			out += "  " + s.styles.PrimaryTxt.Render(tr.Translate(l.Label, nil)) + "  " + s.styles.AccentTxt.Render(l.URL) + "\n"
		}
		out += "\n" + s.kbd.With(components.KeyBinding{Key: "⏎", Desc: "exit"}).View()
		return out
	}

	pending := st.PendingSteps()
	if len(pending) > 0 {
		out += "  " + s.styles.WarningTxt.Render(tr.Translate("profile.register-profile-complete-steps", nil)) + "\n"
		for _, step := range pending {
			out += "    " + s.styles.ErrorTxt.Render("✗ ") + s.styles.PrimaryTxt.Render(s.stepLabel(step)) + "\n"
		}
	} else {
		out += "  " + s.styles.SuccessTxt.Render("✓ "+tr.Translate("profile.register-profile-complete-possible", nil)) + "\n"
	}

	if schemes := st.Config.Schemes; len(schemes) > 0 {
		out += "\n"
		for _, sc := range schemes {
			if sc.Register == registration.RequirementNo {
				continue
			}
			mark, status := s.styles.DimTxt.Render("○ "), tr.Translate("profile.register-scheme-todo", nil)
			if st.Schemes[sc.Name] {
				mark, status = s.styles.SuccessTxt.Render("✓ "), tr.Translate("profile.register-scheme-done", nil)
			}
			out += "    " + mark + s.styles.PrimaryTxt.Render(sc.Label()) + "  " + s.styles.DimTxt.Render(status) + "\n"
		}
	}

	if s.busy {
		out += "\n  " + s.styles.AccentTxt.Render(working) + "\n"
	}

	hints := []components.KeyBinding{}
	if st.CanFinalize() {
		hints = append(hints, components.KeyBinding{Key: "⏎", Desc: tr.Translate("profile.register-profile-complete", nil)})
	}
	hints = append(hints,
		components.KeyBinding{Key: "r", Desc: "refresh"},
		components.KeyBinding{Key: "backspace", Desc: "back"},
		components.KeyBinding{Key: "ctrl+x", Desc: tr.Translate("profile.register-profile-cancel", nil)},
		components.KeyBinding{Key: "esc", Desc: "quit"},
	)
	out += "\n" + s.kbd.With(hints...).View()
	return out
}

func (s *CompleteStep) stepLabel(step registration.StepDescriptor) string {
	if step.Kind == registration.StepPassword {
		return s.reg.Tr.Translate("profile.register-profile-complete-step-password", nil)
	}
	return s.reg.Tr.Translate("profile.register-profile-complete-step-scheme", map[string]any{"scheme": step.DisplayName})
}

func (s *CompleteStep) Complete() bool {
	return s.complete
}

func (s *CompleteStep) Summary() string {
	if s.reg.Flow.State().Complete {
		return s.reg.Tr.Translate("profile.register-profile-completed", nil)
	}
	return ""
}

func (s *CompleteStep) Apply(ctx *tui.WizardContext) {
	ctx.Finished = s.reg.Flow.State().Complete
}

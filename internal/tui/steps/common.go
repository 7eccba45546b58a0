package steps

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/forms"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
)

func newTextInput(styles *tui.StyleSet, label, placeholder string, validate func(string) error) components.TextInput {
	return components.NewTextInput(
		label,
		placeholder,
		validate,
		styles.Theme.Accent,
		styles.AccentTxt,
		styles.InactiveBorder,
		styles.ErrorTxt,
		styles.DimTxt,
		styles.KbdKey,
		styles.KbdDesc,
	)
}

func newSecretInput(styles *tui.StyleSet, label, placeholder string) components.SecretInput {
	return components.NewSecretInput(
		label, placeholder, true,
		styles.Theme.Accent,
		styles.Theme.Success,
		styles.Theme.Error,
		styles.Theme.Border,
		styles.AccentTxt,
		styles.InactiveBorder,
		styles.SuccessTxt,
		styles.ErrorTxt,
		styles.DimTxt,
		styles.KbdKey,
		styles.KbdDesc,
	)
}

// runOp runs fn off the update loop and reports its error as an OpResultMsg.
func runOp(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return tui.OpResultMsg{Op: op, Err: fn()}
	}
}

func complete() tea.Msg { return tui.StepCompleteMsg{} }

func back() tea.Msg { return tui.StepBackMsg{} }

// fieldMessage returns the translated inline message for a field error, or
// "" for errors reported elsewhere.
func fieldMessage(tr i18n.Translator, err error) string {
	var fe *forms.FieldError
	if errors.As(err, &fe) {
		return tr.Translate(fe.Key, nil)
	}
	return ""
}

const working = "⣾ Working..."

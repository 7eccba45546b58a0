package steps

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
)

// PluginParamsStep edits the module parameters as JSON and previews the
// schema violations while typing.
type PluginParamsStep struct {
	styles   *tui.StyleSet
	pe       PluginEditor
	editor   components.JSONEditor
	complete bool
}

// NewPluginParamsStep creates the parameters step.
func NewPluginParamsStep(styles *tui.StyleSet, pe PluginEditor) *PluginParamsStep {
	s := &PluginParamsStep{styles: styles, pe: pe}
	s.load()
	return s
}

func (s *PluginParamsStep) load() {
	s.editor = components.NewJSONEditor(
		s.pe.Tr.Translate("admin.mod-parameters", nil),
		s.pe.Editor.Entity().Parameters,
		s.styles.AccentTxt,
		s.styles.InactiveBorder,
		s.styles.ErrorTxt,
		s.styles.WarningTxt,
		s.styles.KbdKey,
		s.styles.KbdDesc,
	)
	s.preview()
}

// Prepare reloads the parameters, which an import may have replaced.
func (s *PluginParamsStep) Prepare(_ *tui.WizardContext) {
	s.load()
}

func (s *PluginParamsStep) Title() string { return s.pe.Tr.Translate("admin.mod-parameters", nil) }
func (s *PluginParamsStep) Icon() string  { return "⚙" }

func (s *PluginParamsStep) Init() tea.Cmd {
	s.complete = false
	return s.editor.Init()
}

func (s *PluginParamsStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			if !s.editor.Valid() {
				return s, nil
			}
			s.complete = true
			return s, complete
		case "ctrl+b":
			return s, back
		}
	}

	var cmd tea.Cmd
	s.editor, cmd = s.editor.Update(msg)
	if s.editor.Valid() {
		s.pe.Editor.SetParameters(s.editor.Object(), true)
	} else {
		s.pe.Editor.SetParameters(s.pe.Editor.Entity().Parameters, false)
	}
	s.preview()
	return s, cmd
}

// preview lists the schema violations of the current object.
func (s *PluginParamsStep) preview() {
	if !s.editor.Valid() {
		s.editor.SetIssues(nil)
		return
	}
	issues, err := s.pe.Catalog.ValidateParameters(s.pe.Editor.Entity().Module, s.editor.Object())
	if err != nil {
		issues = []string{err.Error()}
	}
	s.editor.SetIssues(issues)
}

func (s *PluginParamsStep) View(width int) string {
	return s.editor.View(width)
}

func (s *PluginParamsStep) Complete() bool {
	return s.complete
}

func (s *PluginParamsStep) Summary() string {
	return fmt.Sprintf("%d parameters", len(s.pe.Editor.Entity().Parameters))
}

func (s *PluginParamsStep) Apply(_ *tui.WizardContext) {}

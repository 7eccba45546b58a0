package steps

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/plugin"
)

// PluginEditor bundles what the plugin editor steps share.
type PluginEditor struct {
	Editor  *plugin.Editor
	Catalog *plugin.Catalog
	Tr      i18n.Translator
	Ctx     context.Context
	// ExportDir receives exported entity files.
	ExportDir string
}

// PluginTypeStep selects the module type. The type is fixed in edit mode.
type PluginTypeStep struct {
	styles   *tui.StyleSet
	pe       PluginEditor
	picker   components.ModulePicker
	complete bool
}

// NewPluginTypeStep creates the type step from the catalog.
func NewPluginTypeStep(styles *tui.StyleSet, pe PluginEditor) *PluginTypeStep {
	s := &PluginTypeStep{styles: styles, pe: pe}
	s.load()
	return s
}

func (s *PluginTypeStep) load() {
	s.picker = components.NewModulePicker(s.pe.Catalog.Types(), s.pe.Editor.Entity().Module, components.PickerStyles{
		Cursor:   s.styles.AccentTxt,
		Label:    s.styles.PrimaryTxt.Bold(true),
		Dim:      s.styles.DimTxt,
		Detail:   s.styles.SecondaryTxt,
		Filter:   s.styles.AccentTxt,
		Selected: s.styles.SuccessTxt,
		Box:      s.styles.InactiveBorder,
		KbdKey:   s.styles.KbdKey,
		KbdDesc:  s.styles.KbdDesc,
	})
}

func (s *PluginTypeStep) Title() string { return s.pe.Tr.Translate("admin.mod-type", nil) }
func (s *PluginTypeStep) Icon() string  { return "🧩" }

func (s *PluginTypeStep) Init() tea.Cmd {
	if s.pe.Editor.Mode() == plugin.ModeEdit && s.pe.Editor.Entity().Module != "" {
		s.complete = true
		return complete
	}
	s.complete = false
	s.load()
	return s.picker.Init()
}

func (s *PluginTypeStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}

	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)
	if s.picker.Done() {
		s.pe.Editor.SetModule(s.picker.Picked())
		s.complete = true
		return s, complete
	}
	return s, cmd
}

func (s *PluginTypeStep) View(width int) string {
	var out string
	if fe := s.pe.Editor.TypeError(); fe != nil {
		out += "  " + s.styles.ErrorTxt.Render("✗ "+s.pe.Tr.Translate(fe.Key, nil)) + "\n"
	}
	out += "  " + s.styles.SecondaryTxt.Render(s.pe.Tr.Translate("admin.mod-type-select", nil)) + "\n\n"
	return out + s.picker.View(width)
}

func (s *PluginTypeStep) Complete() bool {
	return s.complete
}

func (s *PluginTypeStep) Summary() string {
	module := s.pe.Editor.Entity().Module
	if mt, ok := s.pe.Catalog.Lookup(module); ok {
		return mt.Label()
	}
	return module
}

func (s *PluginTypeStep) Apply(ctx *tui.WizardContext) {
	ctx.Module = s.pe.Editor.Entity().Module
}

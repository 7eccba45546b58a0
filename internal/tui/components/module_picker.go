package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/initializ/glewlwyd-console/plugin"
)

// PickerStyles holds the styles of a ModulePicker.
type PickerStyles struct {
	Cursor   lipgloss.Style
	Label    lipgloss.Style
	Dim      lipgloss.Style
	Detail   lipgloss.Style
	Filter   lipgloss.Style
	Selected lipgloss.Style
	Box      lipgloss.Style
	KbdKey   lipgloss.Style
	KbdDesc  lipgloss.Style
}

// ModulePicker lists plugin module types. Typing narrows the list by name
// or display name.
type ModulePicker struct {
	types   []plugin.ModType
	visible []int
	filter  string
	current string
	cursor  int
	picked  string
	done    bool

	styles PickerStyles
	kbd    KbdHint
}

// NewModulePicker creates a picker over types. current is the module the
// entity already uses and is marked in the list.
func NewModulePicker(types []plugin.ModType, current string, styles PickerStyles) ModulePicker {
	kbd := NewKbdHint(styles.KbdKey, styles.KbdDesc)
	kbd.Bindings = SelectHints()
	p := ModulePicker{
		types:   types,
		current: current,
		styles:  styles,
		kbd:     kbd,
	}
	p.refilter()
	return p
}

// Init clears a previous pick so the picker can be used again after going back.
func (p *ModulePicker) Init() tea.Cmd {
	p.done = false
	p.picked = ""
	return nil
}

// Update moves the cursor, edits the filter and picks on enter.
func (p ModulePicker) Update(msg tea.Msg) (ModulePicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || p.done {
		return p, nil
	}
	switch key.Type {
	case tea.KeyUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case tea.KeyDown:
		if p.cursor < len(p.visible)-1 {
			p.cursor++
		}
	case tea.KeyEnter:
		if mt, ok := p.Highlighted(); ok {
			p.picked = mt.Name
			p.done = true
		}
	case tea.KeyBackspace:
		if p.filter != "" {
			r := []rune(p.filter)
			p.filter = string(r[:len(r)-1])
			p.refilter()
		}
	case tea.KeyRunes:
		p.filter += string(key.Runes)
		p.refilter()
	}
	return p, nil
}

func (p *ModulePicker) refilter() {
	keep := p.current
	if mt, ok := p.Highlighted(); ok {
		keep = mt.Name
	}
	needle := strings.ToLower(p.filter)
	p.visible = nil
	for i, mt := range p.types {
		if needle == "" ||
			strings.Contains(strings.ToLower(mt.Name), needle) ||
			strings.Contains(strings.ToLower(mt.DisplayName), needle) {
			p.visible = append(p.visible, i)
		}
	}
	p.cursor = 0
	p.SetCursor(keep)
}

// SetCursor moves the cursor to the visible module named name. It reports
// whether the module is listed.
func (p *ModulePicker) SetCursor(name string) bool {
	for i, idx := range p.visible {
		if p.types[idx].Name == name {
			p.cursor = i
			return true
		}
	}
	return false
}

// Highlighted returns the module under the cursor.
func (p ModulePicker) Highlighted() (plugin.ModType, bool) {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return plugin.ModType{}, false
	}
	return p.types[p.visible[p.cursor]], true
}

// Done reports whether a module was picked.
func (p ModulePicker) Done() bool {
	return p.done
}

// Picked returns the name of the picked module.
func (p ModulePicker) Picked() string {
	return p.picked
}

// View renders the filter line and the matching modules. Only the
// highlighted module shows its description.
func (p ModulePicker) View(width int) string {
	boxWidth := width - 6
	if boxWidth < 30 {
		boxWidth = 30
	}

	var rows []string
	if p.filter != "" {
		rows = append(rows, p.styles.Filter.Render("/ "+p.filter))
	}
	if len(p.visible) == 0 {
		rows = append(rows, p.styles.Dim.Render("no module matches"))
	}
	for i, idx := range p.visible {
		mt := p.types[idx]
		mark, label := "  ", p.styles.Dim.Render(mt.Label())
		if i == p.cursor {
			mark, label = p.styles.Cursor.Render("› "), p.styles.Label.Render(mt.Label())
		}
		line := mark + label + "  " + p.styles.Dim.Render(mt.Name)
		if mt.Name == p.current {
			line += "  " + p.styles.Selected.Render("(current)")
		}
		rows = append(rows, line)
		if i == p.cursor && mt.Description != "" {
			rows = append(rows, "    "+p.styles.Detail.Render(mt.Description))
		}
	}

	out := "  " + p.styles.Box.Width(boxWidth).Render(strings.Join(rows, "\n")) + "\n"
	return out + "\n" + p.kbd.View()
}

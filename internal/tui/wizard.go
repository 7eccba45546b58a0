package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned by Err when the user quits the wizard.
var ErrCancelled = errors.New("wizard cancelled")

// DefaultToastTTL is how long a notification stays on screen.
const DefaultToastTTL = 4 * time.Second

// WizardContext accumulates the data collected across wizard steps.
type WizardContext struct {
	// Registration
	Username string
	Email    string
	Name     string
	Language string
	Finished bool

	// Plugin editor
	Module      string
	PluginName  string
	DisplayName string
	Saved       bool
	ExportPath  string
}

// NewWizardContext creates an initialized WizardContext.
func NewWizardContext() *WizardContext {
	return &WizardContext{}
}

// WizardOptions configures a WizardModel.
type WizardOptions struct {
	Subtitle string
	Version  string
	ToastTTL time.Duration
}

// WizardModel is the top-level bubbletea model that orchestrates the steps,
// the notification toast and the confirmation dialog.
type WizardModel struct {
	styles   *StyleSet
	theme    TermTheme
	steps    []Step
	current  int
	ctx      *WizardContext
	width    int
	height   int
	done     bool
	err      error
	version  string
	subtitle string

	toast    *NotificationMsg
	toastSeq int
	toastTTL time.Duration
	confirm  *ConfirmMsg
}

// NewWizardModel creates a new wizard with the given steps.
func NewWizardModel(theme TermTheme, steps []Step, opts WizardOptions) WizardModel {
	ttl := opts.ToastTTL
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return WizardModel{
		styles:   NewStyleSet(theme),
		theme:    theme,
		steps:    steps,
		ctx:      NewWizardContext(),
		width:    80,
		height:   24,
		version:  opts.Version,
		subtitle: opts.Subtitle,
		toastTTL: ttl,
	}
}

// Init initializes the first step.
func (w WizardModel) Init() tea.Cmd {
	if len(w.steps) > 0 {
		return w.steps[0].Init()
	}
	return nil
}

// advanceStep applies the current step's data and moves to the next one.
func (w *WizardModel) advanceStep() tea.Cmd {
	if w.current < len(w.steps) {
		w.steps[w.current].Apply(w.ctx)
	}

	w.current++
	if w.current >= len(w.steps) {
		w.done = true
		return tea.Quit
	}

	if preparer, ok := w.steps[w.current].(interface{ Prepare(ctx *WizardContext) }); ok {
		preparer.Prepare(w.ctx)
	}
	return w.steps[w.current].Init()
}

func (w *WizardModel) reset() tea.Cmd {
	for _, s := range w.steps {
		if r, ok := s.(Resetter); ok {
			r.Reset()
		}
	}
	w.current = 0
	w.ctx = NewWizardContext()
	w.done = false
	if len(w.steps) == 0 {
		return nil
	}
	return w.steps[0].Init()
}

func (w *WizardModel) answer(confirmed bool) tea.Cmd {
	cb := w.confirm.Callback
	w.confirm = nil
	if cb == nil {
		return nil
	}
	// The callback talks to the server, so it runs off the update loop.
	return func() tea.Msg {
		cb(confirmed)
		return nil
	}
}

// Update handles messages for the wizard.
func (w WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		return w, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			w.err = ErrCancelled
			return w, tea.Quit
		}
		if w.confirm != nil {
			switch msg.String() {
			case "y", "Y", "enter":
				return w, w.answer(true)
			case "n", "N", "esc":
				return w, w.answer(false)
			}
			return w, nil
		}
		if msg.String() == "esc" {
			w.err = ErrCancelled
			return w, tea.Quit
		}

	case NotificationMsg:
		w.toastSeq++
		seq := w.toastSeq
		w.toast = &msg
		return w, tea.Tick(w.toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })

	case toastExpiredMsg:
		if msg.seq == w.toastSeq {
			w.toast = nil
		}
		return w, nil

	case ConfirmMsg:
		w.confirm = &msg
		return w, nil

	case CloseConfirmMsg:
		w.confirm = nil
		return w, nil

	case ResetMsg:
		return w, w.reset()

	case StepBackMsg:
		if w.current > 0 {
			w.current--
			return w, w.steps[w.current].Init()
		}
		return w, nil

	case StepCompleteMsg:
		// This is the sole path for step advancement.
		cmd := w.advanceStep()
		return w, cmd
	}

	if w.current < len(w.steps) {
		updated, cmd := w.steps[w.current].Update(msg)
		w.steps[w.current] = updated
		return w, cmd
	}

	return w, nil
}

// View renders the entire wizard UI.
func (w WizardModel) View() string {
	var out string

	out += "\n" + RenderBanner(w.styles, w.subtitle, w.version, w.width)
	if w.toast != nil {
		out += RenderToast(w.styles, *w.toast) + "\n"
	}

	out += RenderProgress(w.steps, w.current, w.styles, w.width)
	out += "\n"

	if w.confirm != nil {
		out += RenderConfirm(w.styles, *w.confirm, w.width)
	} else if w.current < len(w.steps) {
		out += w.steps[w.current].View(w.width)
	}
	out += "\n"
	if p := RenderPending(w.steps, w.current, w.styles); p != "" {
		out += "\n" + p
	}

	return out
}

// Context returns the accumulated wizard context.
func (w WizardModel) Context() *WizardContext {
	return w.ctx
}

// Current returns the index of the active step.
func (w WizardModel) Current() int {
	return w.current
}

// Toast returns the notification on screen, if any.
func (w WizardModel) Toast() (NotificationMsg, bool) {
	if w.toast == nil {
		return NotificationMsg{}, false
	}
	return *w.toast, true
}

// Confirming reports whether the confirmation dialog is open.
func (w WizardModel) Confirming() bool {
	return w.confirm != nil
}

// Err returns any error that occurred during the wizard.
func (w WizardModel) Err() error {
	return w.err
}

// Done returns true if the wizard completed successfully.
func (w WizardModel) Done() bool {
	return w.done
}

package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeStep struct {
	title    string
	inits    int
	resets   int
	prepared int
	updates  []tea.Msg
}

func (s *fakeStep) Title() string { return s.title }
func (s *fakeStep) Icon() string  { return "•" }
func (s *fakeStep) Init() tea.Cmd {
	s.inits++
	return nil
}
func (s *fakeStep) Update(msg tea.Msg) (Step, tea.Cmd) {
	s.updates = append(s.updates, msg)
	return s, nil
}
func (s *fakeStep) View(int) string { return s.title + " view" }
func (s *fakeStep) Complete() bool  { return false }
func (s *fakeStep) Summary() string { return s.title + " done" }
func (s *fakeStep) Apply(ctx *WizardContext) {
	ctx.Name += s.title
}
func (s *fakeStep) Reset()                   { s.resets++ }
func (s *fakeStep) Prepare(_ *WizardContext) { s.prepared++ }

func newTestWizard() (WizardModel, *fakeStep, *fakeStep) {
	a, b := &fakeStep{title: "a"}, &fakeStep{title: "b"}
	return NewWizardModel(DarkTheme, []Step{a, b}, WizardOptions{Version: "test"}), a, b
}

func update(t *testing.T, w WizardModel, msg tea.Msg) (WizardModel, tea.Cmd) {
	t.Helper()
	m, cmd := w.Update(msg)
	return m.(WizardModel), cmd
}

func TestWizard_AdvanceAndFinish(t *testing.T) {
	w, a, b := newTestWizard()

	w, _ = update(t, w, StepCompleteMsg{})
	if w.Current() != 1 {
		t.Fatalf("Current = %d, want 1", w.Current())
	}
	if b.prepared != 1 || b.inits != 1 {
		t.Errorf("step b prepared/init = %d/%d, want 1/1", b.prepared, b.inits)
	}

	w, _ = update(t, w, StateChangedMsg{})
	if len(b.updates) != 1 || len(a.updates) != 0 {
		t.Errorf("updates a/b = %d/%d, want 0/1", len(a.updates), len(b.updates))
	}

	w, cmd := update(t, w, StepCompleteMsg{})
	if !w.Done() || cmd == nil {
		t.Fatal("wizard not done after last step")
	}
	if got := w.Context().Name; got != "ab" {
		t.Errorf("Context().Name = %q, want %q", got, "ab")
	}
}

func TestWizard_BackAndReset(t *testing.T) {
	w, a, b := newTestWizard()
	w, _ = update(t, w, StepCompleteMsg{})
	w, _ = update(t, w, StepBackMsg{})
	if w.Current() != 0 || a.inits != 1 {
		t.Errorf("after back Current = %d, a.inits = %d, want 0, 1", w.Current(), a.inits)
	}

	w, _ = update(t, w, StepCompleteMsg{})
	w, _ = update(t, w, ResetMsg{})
	if w.Current() != 0 {
		t.Errorf("after reset Current = %d, want 0", w.Current())
	}
	if a.resets != 1 || b.resets != 1 {
		t.Errorf("resets a/b = %d/%d, want 1/1", a.resets, b.resets)
	}
	if w.Context().Name != "" {
		t.Errorf("context not cleared: %q", w.Context().Name)
	}
}

func TestWizard_Toast(t *testing.T) {
	w, _, _ := newTestWizard()

	w, cmd := update(t, w, NotificationMsg{Level: "info", Message: "one"})
	if cmd == nil {
		t.Fatal("no expiry scheduled")
	}
	w, _ = update(t, w, NotificationMsg{Level: "danger", Message: "two"})

	// The first toast's timer must not clear the second.
	w, _ = update(t, w, toastExpiredMsg{seq: 1})
	toast, ok := w.Toast()
	if !ok || toast.Message != "two" {
		t.Fatalf("Toast = %+v, %v, want two", toast, ok)
	}
	w, _ = update(t, w, toastExpiredMsg{seq: 2})
	if _, ok := w.Toast(); ok {
		t.Error("toast still shown after expiry")
	}
}

func TestWizard_Confirm(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{tea.KeyMsg{Type: tea.KeyEnter}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			w, a, _ := newTestWizard()
			var answers []bool
			w, _ = update(t, w, ConfirmMsg{Title: "t", Callback: func(ok bool) { answers = append(answers, ok) }})
			if !w.Confirming() {
				t.Fatal("dialog not open")
			}

			w, _ = update(t, w, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
			if len(a.updates) != 0 {
				t.Error("key reached the step while the dialog was open")
			}

			w, cmd := update(t, w, tt.key)
			if w.Confirming() {
				t.Error("dialog still open after answer")
			}
			if w.Err() != nil {
				t.Errorf("Err = %v, want nil", w.Err())
			}
			if cmd == nil {
				t.Fatal("answer returned no command")
			}
			cmd()
			if len(answers) != 1 || answers[0] != tt.want {
				t.Errorf("answers = %v, want [%v]", answers, tt.want)
			}
		})
	}
}

func TestWizard_Quit(t *testing.T) {
	w, _, _ := newTestWizard()
	w, cmd := update(t, w, tea.KeyMsg{Type: tea.KeyEsc})
	if !errors.Is(w.Err(), ErrCancelled) || cmd == nil {
		t.Errorf("Err = %v, want ErrCancelled and a quit command", w.Err())
	}
}

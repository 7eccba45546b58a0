package steps

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/debounce"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/mockserver"
	"github.com/initializ/glewlwyd-console/registration"
)

type regHarness struct {
	reg    Registration
	clock  *debounce.FakeClock
	mock   *mockserver.Server
	styles *tui.StyleSet
}

func newRegHarness(t *testing.T, opts mockserver.Options) *regHarness {
	t.Helper()
	mock := mockserver.New(opts)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	tr, err := i18n.NewCatalog("en")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	clock := debounce.NewFakeClock()
	flow := registration.NewFlow(registration.FlowOptions{
		Remote:     registration.NewHTTPRemote(client, "register"),
		Bus:        bus.New(),
		Translator: tr,
		Clock:      clock,
		Rand:       func(int) int { return 42 },
	})
	t.Cleanup(flow.Close)
	if err := flow.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return &regHarness{
		reg: Registration{
			Flow:  flow,
			Tr:    tr,
			Ctx:   context.Background(),
			Links: registration.LinkConfig{CallbackURL: "https://app.example.com/login"},
		},
		clock:  clock,
		mock:   mock,
		styles: tui.NewStyleSet(tui.DarkTheme),
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

// keys feeds keystrokes to step, dropping the cursor commands they return.
func keys(step tui.Step, msgs ...tea.Msg) {
	for _, msg := range msgs {
		step.Update(msg)
	}
}

// submit sends msg and resolves remote operations synchronously. It returns
// the first message that is not an operation or validation result.
func submit(step tui.Step, msg tea.Msg) tea.Msg {
	_, cmd := step.Update(msg)
	for cmd != nil {
		out := cmd()
		switch out.(type) {
		case tui.OpResultMsg, tui.ValidationResultMsg:
			_, cmd = step.Update(out)
		default:
			return out
		}
	}
	return nil
}

func isComplete(msg tea.Msg) bool {
	_, ok := msg.(tui.StepCompleteMsg)
	return ok
}

func backspaces(n int) []tea.Msg {
	out := make([]tea.Msg, n)
	for i := range out {
		out[i] = tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return out
}

func TestAccountStep_SuggestionAndRegister(t *testing.T) {
	h := newRegHarness(t, mockserver.Options{
		Config: registration.Config{SetPassword: registration.RequirementAlways},
		Taken:  []string{"alice"},
	})
	step := NewAccountStep(h.styles, h.reg)
	step.Init()

	keys(step, runes("alice"))
	h.clock.Advance(time.Second)
	step.Update(tui.StateChangedMsg{})
	if view := step.View(80); !strings.Contains(view, "Try alice42") {
		t.Errorf("view does not offer the suggestion:\n%s", view)
	}

	// Enter on a taken username stays on the step.
	if isComplete(submit(step, enter)) {
		t.Fatal("step completed with a taken username")
	}

	keys(step, tab)
	h.clock.Advance(0)
	if got := h.reg.Flow.State().Username; got.Value != "alice42" || got.Status != registration.CheckValid {
		t.Fatalf("Username = %+v, want alice42 valid", got)
	}

	if !isComplete(submit(step, enter)) {
		t.Fatal("step did not complete after registering")
	}
	if got := h.reg.Flow.State().Phase(); got != registration.PhaseProfile {
		t.Errorf("Phase = %s, want profile", got)
	}
	if got := step.Summary(); got != "alice42" {
		t.Errorf("Summary = %q, want %q", got, "alice42")
	}
}

func TestAccountStep_EmailVerification(t *testing.T) {
	h := newRegHarness(t, mockserver.Options{
		Config: registration.Config{
			VerifyEmail:     true,
			EmailIsUsername: true,
			Languages:       []string{"en", "fr"},
		},
	})
	step := NewAccountStep(h.styles, h.reg)
	step.Init()

	keys(step, tea.KeyMsg{Type: tea.KeyCtrlL})
	if got := h.reg.Flow.State().Language; got != "fr" {
		t.Errorf("Language = %q, want %q", got, "fr")
	}

	keys(step, runes("bob@example.com"))
	h.clock.Advance(time.Second)
	submit(step, enter)
	if step.phase != accountCodePhase {
		t.Fatalf("phase = %d, want code phase", step.phase)
	}

	keys(step, runes("000000"))
	if isComplete(submit(step, enter)) {
		t.Fatal("step completed with a wrong code")
	}
	if view := step.View(80); !strings.Contains(view, "Invalid code") {
		t.Errorf("view does not show the code error:\n%s", view)
	}

	keys(step, backspaces(6)...)
	if step.phase != accountCodePhase {
		t.Fatalf("backspace on a non-empty code left the code phase")
	}
	keys(step, runes(mockserver.DefaultCode))
	if !isComplete(submit(step, enter)) {
		t.Fatal("step did not complete with the right code")
	}
	if p := h.reg.Flow.State().Profile; p == nil || p.Username != "bob@example.com" {
		t.Errorf("Profile = %+v, want username bob@example.com", p)
	}
}

func registerAlice(t *testing.T, h *regHarness) {
	t.Helper()
	h.reg.Flow.EditUsername("alice")
	h.clock.Advance(time.Second)
	if err := h.reg.Flow.RegisterUsername(context.Background()); err != nil {
		t.Fatalf("RegisterUsername: %v", err)
	}
}

func TestProfileAndCompleteSteps(t *testing.T) {
	h := newRegHarness(t, mockserver.Options{
		Config: registration.Config{SetPassword: registration.RequirementAlways},
	})
	registerAlice(t, h)

	profile := NewProfileStep(h.styles, h.reg)
	profile.Prepare(tui.NewWizardContext())
	profile.Init()

	keys(profile, runes("Alice Liddell"), tab, runes("short"), tab, runes("short"))
	if view := profile.View(80); !strings.Contains(view, "At least 8 characters") {
		t.Errorf("view does not show the length error:\n%s", view)
	}
	// Saving with a bad password refocuses the password field.
	if isComplete(submit(profile, enter)) {
		t.Fatal("saved with an invalid password")
	}
	keys(profile, backspaces(5)...)
	keys(profile, runes("wonderland"), tab)
	keys(profile, backspaces(5)...)
	keys(profile, runes("wonderland"))

	if !isComplete(submit(profile, enter)) {
		t.Fatal("profile step did not complete after saving")
	}
	if !h.mock.CheckPassword("alice", "wonderland") {
		t.Error("password not stored")
	}
	st := h.reg.Flow.State()
	if st.Profile.Name != "Alice Liddell" || st.Password != "" {
		t.Errorf("state after save: name %q, password %q", st.Profile.Name, st.Password)
	}

	wctx := tui.NewWizardContext()
	profile.Apply(wctx)
	done := NewCompleteStep(h.styles, h.reg)
	done.Prepare(wctx)
	done.Init()

	submit(done, enter)
	if !h.reg.Flow.State().Complete || !h.mock.Registered("alice") {
		t.Fatal("registration not finalized")
	}
	if view := done.View(80); !strings.Contains(view, "https://app.example.com/login") {
		t.Errorf("view does not list the login link:\n%s", view)
	}
	if !isComplete(submit(done, enter)) {
		t.Error("enter after completion did not finish the step")
	}
}

func TestCompleteStep_PendingAndCancel(t *testing.T) {
	h := newRegHarness(t, mockserver.Options{
		Config: registration.Config{SetPassword: registration.RequirementAlways},
	})
	registerAlice(t, h)

	var confirm *bus.AppEvent
	h.reg.Flow.Bus().App.Subscribe(func(ev bus.AppEvent) {
		if ev.Type == bus.AppConfirm {
			confirm = &ev
		}
	})

	step := NewCompleteStep(h.styles, h.reg)
	step.Prepare(tui.NewWizardContext())
	if view := step.View(80); !strings.Contains(view, "Set a password") {
		t.Errorf("view does not list the password step:\n%s", view)
	}
	if view := step.View(80); !strings.Contains(view, "not set") {
		t.Errorf("view does not show the missing password:\n%s", view)
	}
	submit(step, enter)
	if h.mock.Registered("alice") {
		t.Fatal("finalized with a pending password")
	}

	keys(step, tea.KeyMsg{Type: tea.KeyCtrlX})
	if confirm == nil {
		t.Fatal("cancel did not ask for confirmation")
	}
	confirm.Callback(true)
	if got := h.reg.Flow.State().Phase(); got != registration.PhaseAccount {
		t.Errorf("Phase after cancel = %s, want account", got)
	}
}

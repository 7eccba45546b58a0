package mockserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/debounce"
	"github.com/initializ/glewlwyd-console/plugin"
	"github.com/initializ/glewlwyd-console/registration"
)

func newClient(t *testing.T, srv *httptest.Server, token string) *api.Client {
	t.Helper()
	c, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL, Token: token})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func newFlow(t *testing.T, client *api.Client, b *bus.Bus, clock debounce.Clock) *registration.Flow {
	t.Helper()
	f := registration.NewFlow(registration.FlowOptions{
		Remote: registration.NewHTTPRemote(client, "register"),
		Bus:    b,
		Clock:  clock,
		Rand:   func(int) int { return 42 },
	})
	t.Cleanup(f.Close)
	return f
}

func TestRegistrationWithPassword(t *testing.T) {
	mock := New(Options{
		Config: registration.Config{SetPassword: registration.RequirementAlways},
		Taken:  []string{"alice"},
	})
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	clock := debounce.NewFakeClock()
	b := bus.New()
	var notes []bus.Notification
	b.Notification.Subscribe(func(n bus.Notification) { notes = append(notes, n) })
	flow := newFlow(t, newClient(t, srv, ""), b, clock)
	ctx := context.Background()

	if err := flow.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := flow.State().Phase(); got != registration.PhaseAccount {
		t.Fatalf("Phase = %s, want account", got)
	}

	flow.EditUsername("alice")
	clock.Advance(time.Second)
	st := flow.State()
	if st.Username.Status != registration.CheckInvalid {
		t.Fatalf("alice Status = %s, want invalid", st.Username.Status)
	}
	if st.Username.Suggestion != "alice42" {
		t.Fatalf("Suggestion = %q, want %q", st.Username.Suggestion, "alice42")
	}
	flow.SelectSuggestion()
	clock.Advance(0)
	if got := flow.State().Username.Status; got != registration.CheckValid {
		t.Fatalf("alice42 Status = %s, want valid", got)
	}

	if err := flow.RegisterUsername(ctx); err != nil {
		t.Fatalf("RegisterUsername: %v", err)
	}
	if flow.State().CanFinalize() {
		t.Fatal("CanFinalize() = true without password")
	}

	flow.EditName("Alice Liddell")
	flow.EditPassword("wonderland", "wonderland")
	if err := flow.SaveProfile(ctx); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	st = flow.State()
	if st.Profile.Name != "Alice Liddell" || !st.Profile.PasswordSet {
		t.Errorf("Profile = %+v, want name and password set", st.Profile)
	}
	if !mock.CheckPassword("alice42", "wonderland") {
		t.Error("stored password does not match")
	}

	if err := flow.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !mock.Registered("alice42") {
		t.Error("alice42 not registered after finalize")
	}
	for _, n := range notes {
		if n.Level == bus.LevelDanger {
			t.Errorf("unexpected danger notification %q", n.Message)
		}
	}
}

func TestRegistrationWithEmailVerification(t *testing.T) {
	mock := New(Options{
		Config: registration.Config{
			SetPassword:     registration.RequirementNo,
			VerifyEmail:     true,
			EmailIsUsername: true,
			Languages:       []string{"en", "fr"},
			Schemes:         []registration.Scheme{{Name: "otp", Register: registration.RequirementAlways}},
		},
		Code: "424242",
	})
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := newClient(t, srv, "")
	clock := debounce.NewFakeClock()
	flow := newFlow(t, client, bus.New(), clock)
	ctx := context.Background()

	if err := flow.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	flow.EditEmail("bob@example.com")
	clock.Advance(time.Second)
	if err := flow.SendVerification(ctx); err != nil {
		t.Fatalf("SendVerification: %v", err)
	}

	flow.EditCode("000000")
	if err := flow.VerifyCode(ctx); err == nil {
		t.Fatal("VerifyCode with wrong code = nil, want error")
	}
	flow.EditCode("424242")
	if err := flow.VerifyCode(ctx); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	st := flow.State()
	if st.Profile == nil || st.Profile.Username != "bob@example.com" {
		t.Fatalf("Profile = %+v, want bob@example.com", st.Profile)
	}
	steps := st.PendingSteps()
	if len(steps) != 1 || steps[0].Scheme != "otp" {
		t.Fatalf("pending = %+v, want [otp]", steps)
	}

	if err := client.Do(ctx, http.MethodPost, "/register/profile/scheme/otp", nil, nil); err != nil {
		t.Fatalf("marking scheme: %v", err)
	}
	if err := flow.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := flow.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !mock.Registered("bob@example.com") {
		t.Error("bob@example.com not registered")
	}
}

func TestCancelRemovesSession(t *testing.T) {
	mock := New(Options{})
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := newClient(t, srv, "")
	clock := debounce.NewFakeClock()
	flow := newFlow(t, client, bus.New(), clock)
	ctx := context.Background()

	flow.EditUsername("carol")
	clock.Advance(time.Second)
	if err := flow.RegisterUsername(ctx); err != nil {
		t.Fatalf("RegisterUsername: %v", err)
	}
	if err := flow.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	err := client.Do(ctx, http.MethodGet, "/register/profile", nil, nil)
	if got := api.StatusOf(err); got != http.StatusUnauthorized {
		t.Errorf("profile status after cancel = %d, want 401", got)
	}
	if mock.Registered("carol") {
		t.Error("cancelled user registered")
	}
}

func TestCompleteRefusedWithPendingSteps(t *testing.T) {
	mock := New(Options{Config: registration.Config{SetPassword: registration.RequirementAlways}})
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := newClient(t, srv, "")
	ctx := context.Background()
	if err := client.Do(ctx, http.MethodPost, "/register/register", map[string]string{"username": "dan"}, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := client.Do(ctx, http.MethodPost, "/register/profile/complete", nil, nil)
	if !api.IsClientError(err) {
		t.Errorf("complete = %v, want client error", err)
	}
}

func TestPluginEndpoints(t *testing.T) {
	mock := New(Options{
		AdminToken: "s3cret",
		Plugins:    []plugin.Entity{{Name: "existing", Module: "webhook", Parameters: map[string]any{"url": "https://a"}}},
		Types:      []plugin.ModType{{Name: "webhook", DisplayName: "Webhook"}},
	})
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()
	ctx := context.Background()

	anon := plugin.NewHTTPRemote(newClient(t, srv, ""))
	if _, err := anon.Types(ctx); api.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("Types without token = %v, want 401", err)
	}

	remote := plugin.NewHTTPRemote(newClient(t, srv, "s3cret"))
	types, err := remote.Types(ctx)
	if err != nil || len(types) != 1 || types[0].Name != "webhook" {
		t.Fatalf("Types = %+v, %v", types, err)
	}

	catalog, err := plugin.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	b := bus.New()
	defer plugin.NewParametersValidator(catalog, b, nil).Start()()

	editor := plugin.NewEditor(plugin.EditorOptions{Mode: plugin.ModeAdd, Remote: remote, Bus: b})
	defer editor.Close()
	editor.SetName("existing")
	editor.SetModule("webhook")
	editor.SetParameters(map[string]any{"url": "https://hooks.example.com"}, true)
	if err := editor.Submit(ctx); err == nil {
		t.Fatal("Submit with existing name = nil, want error")
	}

	editor.SetName("fresh")
	if err := editor.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := editor.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, err := remote.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Module != "webhook" || got.Parameters["url"] != "https://hooks.example.com" {
		t.Errorf("stored = %+v", got)
	}

	editor.SetDisplayName("Fresh hook")
	if err := editor.Submit(ctx); err != nil {
		t.Fatalf("Submit edit: %v", err)
	}
	if err := editor.Commit(ctx); err != nil {
		t.Fatalf("Commit edit: %v", err)
	}
	got, _ = remote.Get(ctx, "fresh")
	if got.DisplayName != "Fresh hook" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Fresh hook")
	}
}

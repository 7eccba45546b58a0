package screens

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/mockserver"
	"github.com/initializ/glewlwyd-console/registration"
)

func TestWatchPhase(t *testing.T) {
	var got []tea.Msg
	observe := watchPhase(func(msg tea.Msg) { got = append(got, msg) })

	account := registration.State{}
	profile := registration.State{Profile: &registration.Profile{Username: "alice"}}

	observe(account)
	observe(profile)
	observe(profile)
	observe(account)

	want := []tea.Msg{
		tui.StateChangedMsg{},
		tui.StateChangedMsg{},
		tui.StateChangedMsg{},
		tui.StateChangedMsg{},
		tui.ResetMsg{},
	}
	if len(got) != len(want) {
		t.Fatalf("posted %d messages %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("msg[%d] = %T, want %T", i, got[i], want[i])
		}
	}
}

func TestRunRegistration_LoadFailure(t *testing.T) {
	srv := httptest.NewServer(mockserver.New(mockserver.Options{}).Handler())
	url := srv.URL
	srv.Close()

	client, err := api.NewClient(api.ClientConfig{BaseURL: url, TimeoutSecs: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	b := bus.New()
	var notes []bus.Notification
	b.Notification.Subscribe(func(n bus.Notification) { notes = append(notes, n) })
	flow := registration.NewFlow(registration.FlowOptions{
		Remote: registration.NewHTTPRemote(client, "register"),
		Bus:    b,
	})
	defer flow.Close()

	_, err = RunRegistration(context.Background(), RegistrationOptions{Flow: flow, Theme: tui.DarkTheme})
	if err == nil || !strings.Contains(err.Error(), "loading registration") {
		t.Fatalf("error = %v, want load failure", err)
	}
	if len(notes) == 0 || notes[0].Level != bus.LevelDanger {
		t.Errorf("notifications = %v, want a danger toast", notes)
	}
}

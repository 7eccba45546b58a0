// Package screens assembles the wizard steps into the console screens and
// runs them as bubbletea programs.
package screens

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/steps"
	"github.com/initializ/glewlwyd-console/plugin"
	"github.com/initializ/glewlwyd-console/registration"
)

// RegistrationOptions configures RunRegistration.
type RegistrationOptions struct {
	Flow       *registration.Flow
	Translator i18n.Translator
	Links      registration.LinkConfig
	Theme      tui.TermTheme
	Version    string
	// ProgramOptions are passed to tea.NewProgram.
	ProgramOptions []tea.ProgramOption
}

// RunRegistration loads the registration session and runs the registration
// wizard until the user finishes or quits.
func RunRegistration(ctx context.Context, opts RegistrationOptions) (*tui.WizardContext, error) {
	flow := opts.Flow
	tr := opts.Translator
	if tr == nil {
		tr = i18n.Static{}
	}

	bridge := tui.NewBridge()
	detach := bridge.Attach(flow.Bus())
	defer detach()
	stopWatch := flow.Observe(watchPhase(bridge.Post))
	defer stopWatch()

	// Load failures are already queued as a toast.
	if err := flow.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading registration: %w", err)
	}

	styles := tui.NewStyleSet(opts.Theme)
	reg := steps.Registration{Flow: flow, Tr: tr, Ctx: ctx, Links: opts.Links}
	model := tui.NewWizardModel(opts.Theme, []tui.Step{
		steps.NewAccountStep(styles, reg),
		steps.NewProfileStep(styles, reg),
		steps.NewCompleteStep(styles, reg),
	}, tui.WizardOptions{
		Subtitle: tr.Translate("profile.register-title", nil),
		Version:  opts.Version,
	})

	return run(ctx, model, bridge, opts.ProgramOptions)
}

// PluginEditorOptions configures RunPluginEditor.
type PluginEditorOptions struct {
	Editor     *plugin.Editor
	Catalog    *plugin.Catalog
	Bus        *bus.Bus
	Translator i18n.Translator
	Theme      tui.TermTheme
	Version    string
	ExportDir  string
	// ProgramOptions are passed to tea.NewProgram.
	ProgramOptions []tea.ProgramOption
}

// RunPluginEditor runs the plugin editor wizard. The parameters validator
// must already listen on opts.Bus.
func RunPluginEditor(ctx context.Context, opts PluginEditorOptions) (*tui.WizardContext, error) {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.Static{}
	}

	bridge := tui.NewBridge()
	detach := bridge.Attach(opts.Bus)
	defer detach()

	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}
	styles := tui.NewStyleSet(opts.Theme)
	pe := steps.PluginEditor{
		Editor:    opts.Editor,
		Catalog:   opts.Catalog,
		Tr:        tr,
		Ctx:       ctx,
		ExportDir: exportDir,
	}
	model := tui.NewWizardModel(opts.Theme, []tui.Step{
		steps.NewPluginTypeStep(styles, pe),
		steps.NewPluginFieldsStep(styles, pe),
		steps.NewPluginParamsStep(styles, pe),
		steps.NewPluginReviewStep(styles, pe),
	}, tui.WizardOptions{
		Subtitle: fmt.Sprintf("%s %s", opts.Editor.Mode(), opts.Editor.Role()),
		Version:  opts.Version,
	})

	return run(ctx, model, bridge, opts.ProgramOptions)
}

func run(ctx context.Context, model tui.WizardModel, bridge *tui.Bridge, extra []tea.ProgramOption) (*tui.WizardContext, error) {
	popts := append([]tea.ProgramOption{tea.WithContext(ctx)}, extra...)
	p := tea.NewProgram(model, popts...)

	go bridge.Run(p.Send)
	defer bridge.Close()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running console: %w", err)
	}
	wm, ok := final.(tui.WizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model %T", final)
	}
	if err := wm.Err(); err != nil {
		return wm.Context(), err
	}
	return wm.Context(), nil
}

// watchPhase returns a flow observer that refreshes the screen on every
// state change and restarts the wizard when the registration falls back to
// the account phase.
func watchPhase(post func(tea.Msg)) func(registration.State) {
	var mu sync.Mutex
	last := registration.PhaseAccount
	return func(st registration.State) {
		mu.Lock()
		prev := last
		last = st.Phase()
		mu.Unlock()

		post(tui.StateChangedMsg{})
		if prev != registration.PhaseAccount && last == registration.PhaseAccount {
			post(tui.ResetMsg{})
		}
	}
}

package registration

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/availability"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/debounce"
	"github.com/initializ/glewlwyd-console/forms"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/logging"
)

var (
	// ErrPendingSteps is returned by Finalize while mandatory steps remain.
	ErrPendingSteps = errors.New("registration has pending mandatory steps")
	// ErrNoProfile is returned by profile operations before registration.
	ErrNoProfile = errors.New("no registration in progress")
	// ErrUsernameUnavailable is returned when the identifier is not confirmed available.
	ErrUsernameUnavailable = errors.New("username is not confirmed available")
)

const keyAPIConnect = "error-api-connect"

// FlowOptions configures a Flow.
type FlowOptions struct {
	Remote            Remote
	Bus               *bus.Bus
	Translator        i18n.Translator
	Logger            logging.Logger
	Clock             debounce.Clock
	Debounce          time.Duration
	PasswordMinLength int
	CallbackURL       string
	// Language is the preferred verification e-mail language.
	Language string
	// Rand feeds the username suggestion suffix. Defaults to math/rand/v2.
	Rand func(n int) int
	// Context bounds background availability checks and confirm callbacks.
	Context context.Context
}

// Flow drives one registration screen instance. It owns the State, applies
// events through Reduce, and performs the remote side effects.
type Flow struct {
	remote      Remote
	bus         *bus.Bus
	tr          i18n.Translator
	log         logging.Logger
	checker     *availability.Checker
	minLength   int
	callbackURL string
	language    string
	ctx         context.Context

	// editMu orders an edit's dispatch before its availability result.
	editMu sync.Mutex

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int
}

// NewFlow creates a Flow.
func NewFlow(opts FlowOptions) *Flow {
	f := &Flow{
		remote:      opts.Remote,
		bus:         opts.Bus,
		tr:          opts.Translator,
		log:         opts.Logger,
		minLength:   opts.PasswordMinLength,
		callbackURL: opts.CallbackURL,
		language:    opts.Language,
		ctx:         opts.Context,
		observers:   make(map[int]func(State)),
	}
	if f.bus == nil {
		f.bus = bus.New()
	}
	if f.tr == nil {
		f.tr = i18n.Static{}
	}
	if f.log == nil {
		f.log = logging.Nop{}
	}
	if f.minLength <= 0 {
		f.minLength = DefaultPasswordMinLength
	}
	if f.ctx == nil {
		f.ctx = context.Background()
	}
	f.checker = availability.NewChecker(availability.Options{
		Prober:       opts.Remote,
		Clock:        opts.Clock,
		Delay:        opts.Debounce,
		Rand:         opts.Rand,
		Context:      f.ctx,
		OnResult:     f.handleAvailability,
		OnSuggestion: f.handleSuggestion,
	})
	return f
}

// Bus returns the bus the flow publishes on.
func (f *Flow) Bus() *bus.Bus { return f.bus }

// PasswordMinLength returns the enforced minimum password length.
func (f *Flow) PasswordMinLength() int { return f.minLength }

// State returns a snapshot of the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Observe registers fn to receive every new state. It returns a func that
// removes fn.
func (f *Flow) Observe(fn func(State)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextObs++
	id := f.nextObs
	f.observers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.observers, id)
	}
}

// Dispatch applies ev to the state and notifies observers.
func (f *Flow) Dispatch(ev Event) {
	f.mu.Lock()
	f.state = Reduce(f.state, ev)
	snapshot := f.state
	observers := make([]func(State), 0, len(f.observers))
	for _, fn := range f.observers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Close stops pending availability checks.
func (f *Flow) Close() {
	f.checker.Close()
}

// Load fetches the registration config and the session's profile.
func (f *Flow) Load(ctx context.Context) error {
	cfg, err := f.remote.Config(ctx)
	if err != nil {
		f.connectivity("load config", err)
		return err
	}
	lang := ""
	if len(cfg.Languages) > 0 {
		lang = MatchRegistrationLanguage(cfg.Languages, f.language, f.tr.Language())
	}
	f.Dispatch(ConfigLoaded{Config: *cfg, Language: lang})
	return f.Reload(ctx)
}

// MatchRegistrationLanguage picks the e-mail language among the server's.
func MatchRegistrationLanguage(available []string, preferred ...string) string {
	return i18n.MatchLanguage(available, preferred...)
}

// Reload refreshes the profile and scheme completion. A client error on the
// profile means no registration is in progress.
func (f *Flow) Reload(ctx context.Context) error {
	profile, err := f.remote.Profile(ctx)
	if err != nil {
		if api.Classify(err) == api.KindConnectivity {
			f.connectivity("load profile", err)
			return err
		}
		f.Dispatch(ProfileLoaded{})
		return nil
	}

	var schemes SchemeMap
	if len(f.State().Config.Schemes) > 0 {
		schemes, err = f.remote.SchemeStatus(ctx)
		if err != nil {
			f.connectivity("load scheme status", err)
			schemes = nil
		}
	}
	f.Dispatch(ProfileLoaded{Profile: profile, Schemes: schemes})
	return nil
}

// EditUsername records a username keystroke and schedules its check.
func (f *Flow) EditUsername(value string) {
	f.editMu.Lock()
	defer f.editMu.Unlock()
	gen := f.checker.Edit(string(FieldUsername), value, true)
	f.Dispatch(IdentifierEdited{Field: FieldUsername, Value: value, Generation: gen})
}

// EditEmail records an e-mail keystroke. When the e-mail is the username it
// is checked for availability.
func (f *Flow) EditEmail(value string) {
	if !f.State().Config.EmailIsUsername {
		f.Dispatch(EmailEdited{Value: value})
		return
	}
	f.editMu.Lock()
	defer f.editMu.Unlock()
	gen := f.checker.Edit(string(FieldEmail), value, false)
	f.Dispatch(IdentifierEdited{Field: FieldEmail, Value: value, Generation: gen})
}

// SelectSuggestion replaces the username with the surfaced suggestion and
// checks it at once. It reports whether a suggestion was available.
func (f *Flow) SelectSuggestion() bool {
	f.editMu.Lock()
	defer f.editMu.Unlock()
	s := f.State().Username.Suggestion
	if s == "" {
		return false
	}
	gen := f.checker.CheckNow(string(FieldUsername), s, true)
	f.Dispatch(IdentifierEdited{Field: FieldUsername, Value: s, Generation: gen})
	return true
}

func (f *Flow) handleAvailability(r availability.Result) {
	f.editMu.Lock()
	defer f.editMu.Unlock()

	status := CheckIdle
	switch r.Outcome {
	case availability.OutcomeAvailable:
		status = CheckValid
	case availability.OutcomeTaken:
		status = CheckInvalid
	default:
		f.connectivity("check "+r.Key, r.Err)
	}
	f.Dispatch(AvailabilityResolved{Field: Field(r.Key), Generation: r.Generation, Status: status})
}

func (f *Flow) handleSuggestion(s availability.SuggestionResult) {
	if s.Err != nil {
		f.connectivity("suggest username", s.Err)
	}
	f.log.Debug("username suggestion search ended", map[string]any{
		"probes": s.Probes, "found": s.Username != "",
	})
	f.editMu.Lock()
	defer f.editMu.Unlock()
	f.Dispatch(SuggestionFound{Field: Field(s.Key), Generation: s.Generation, Suggestion: s.Username})
}

// SelectLanguage changes the verification e-mail language. Languages the
// server does not offer are ignored.
func (f *Flow) SelectLanguage(lang string) {
	if !slices.Contains(f.State().Config.Languages, lang) {
		return
	}
	f.Dispatch(LanguageSelected{Language: lang})
}

// EditCode records the verification code input.
func (f *Flow) EditCode(code string) { f.Dispatch(CodeEdited{Value: code}) }

// EditName records the profile display name.
func (f *Flow) EditName(name string) { f.Dispatch(NameEdited{Name: name}) }

// EditPassword records the password inputs and validates them.
func (f *Flow) EditPassword(password, confirm string) {
	f.Dispatch(PasswordEdited{Password: password, Confirm: confirm, MinLength: f.minLength})
}

// RequestPasswordChange unlocks the password inputs when one is already set.
func (f *Flow) RequestPasswordChange() { f.Dispatch(PasswordChangeRequested{}) }

// RegisterUsername creates the registration profile for a confirmed
// available username.
func (f *Flow) RegisterUsername(ctx context.Context) error {
	st := f.State()
	if !st.CanRegister() {
		return ErrUsernameUnavailable
	}
	if err := f.remote.Register(ctx, st.Username.Value); err != nil {
		if api.IsClientError(err) {
			return forms.Conflict(string(FieldUsername), "profile.register-username-error")
		}
		f.connectivity("register username", err)
		return err
	}
	f.log.Info("registration started", map[string]any{"username": st.Username.Value})
	if err := f.Reload(ctx); err != nil {
		return err
	}
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppRegistration})
	return nil
}

// SaveProfile sends the display name and, when the inputs hold a valid
// password, the new password. Password inputs are cleared after the
// password call whatever its outcome.
func (f *Flow) SaveProfile(ctx context.Context) error {
	st := f.State()
	if st.Profile == nil {
		return ErrNoProfile
	}

	var errs []error
	if err := f.remote.UpdateProfile(ctx, *st.Profile); err != nil {
		if !api.IsClientError(err) {
			f.connectivity("update profile", err)
		}
		errs = append(errs, err)
	}

	if st.PasswordEditable() && passwordReady(st.Password, st.PasswordConfirm, f.minLength) {
		if err := f.remote.SetPassword(ctx, st.Password); err != nil {
			if !api.IsClientError(err) {
				f.connectivity("set password", err)
			}
			errs = append(errs, err)
		}
		f.Dispatch(PasswordCleared{})
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if err := f.Reload(ctx); err != nil {
		return err
	}
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppRegistration})
	f.notify(bus.LevelInfo, "profile.register-profile-saved", nil)
	return nil
}

// SendVerification asks the server to e-mail a one-time code.
func (f *Flow) SendVerification(ctx context.Context) error {
	st := f.State()
	if !st.CanSendVerification() {
		return ErrUsernameUnavailable
	}
	req := VerificationRequest{
		Username: st.Identifier().Value,
		Email:    st.Email.Value,
		Lang:     st.Language,
	}
	if f.callbackURL != "" {
		req.CallbackURL = url.QueryEscape(f.callbackURL)
	}

	if err := f.remote.SendVerification(ctx, req); err != nil {
		if api.IsClientError(err) {
			f.notify(bus.LevelDanger, "profile.register-profile-email-invalid", nil)
		} else {
			f.connectivity("send verification", err)
		}
		return err
	}
	f.notify(bus.LevelInfo, "profile.register-profile-email-sent", map[string]any{"email": st.Email.Value})
	f.Dispatch(VerificationSent{})
	return nil
}

// VerifyCode confirms the one-time code, which creates the profile.
func (f *Flow) VerifyCode(ctx context.Context) error {
	st := f.State()
	if st.Code == "" {
		f.Dispatch(CodeRejected{})
		return forms.Validation("code", "profile.register-code-error")
	}
	err := f.remote.VerifyCode(ctx, VerifyRequest{
		Username: st.Identifier().Value,
		Email:    st.Email.Value,
		Code:     st.Code,
	})
	if err != nil {
		f.Dispatch(CodeRejected{})
		if !api.IsClientError(err) {
			f.connectivity("verify code", err)
			return err
		}
		return forms.Conflict("code", "profile.register-code-error")
	}
	if err := f.Reload(ctx); err != nil {
		return err
	}
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppRegistration})
	f.notify(bus.LevelInfo, "profile.register-profile-created", nil)
	return nil
}

// Finalize completes the registration once no mandatory step is pending.
// It never retries.
func (f *Flow) Finalize(ctx context.Context) error {
	st := f.State()
	if st.Phase() != PhaseProfile {
		return ErrNoProfile
	}
	if steps := st.PendingSteps(); !CanFinalize(steps) {
		f.log.Warn("finalize refused", map[string]any{"pending": len(steps)})
		return ErrPendingSteps
	}

	if err := f.remote.Complete(ctx); err != nil {
		if api.IsClientError(err) {
			f.notify(bus.LevelWarning, "profile.register-profile-incomplete", nil)
		} else {
			f.connectivity("complete registration", err)
		}
		return err
	}

	f.Dispatch(Completed{})
	f.log.Info("registration completed", map[string]any{"username": st.Profile.Username})
	f.notify(bus.LevelInfo, "profile.register-profile-completed", nil)
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppRegistrationComplete})
	return nil
}

// Cancel deletes the in-progress registration. Local state is reset only
// when the server confirms.
func (f *Flow) Cancel(ctx context.Context) error {
	if err := f.remote.Cancel(ctx); err != nil {
		f.connectivity("cancel registration", err)
		return err
	}
	f.checker.Close()
	f.Dispatch(Restarted{})
	f.log.Info("registration cancelled", nil)
	f.notify(bus.LevelInfo, "profile.register-profile-cancelled", nil)
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppRegistration})
	return nil
}

// RequestCancel asks the screen to confirm the cancellation. The confirm
// callback runs ConfirmCancel on the flow context.
func (f *Flow) RequestCancel() {
	f.bus.App.Publish(bus.AppEvent{
		Type:    bus.AppConfirm,
		Title:   f.tr.Translate("profile.register-profile-cancel-title", nil),
		Message: f.tr.Translate("profile.register-profile-cancel-message", nil),
		Callback: func(confirmed bool) {
			_ = f.ConfirmCancel(f.ctx, confirmed)
		},
	})
}

// ConfirmCancel cancels when confirmed, then dismisses the dialog.
func (f *Flow) ConfirmCancel(ctx context.Context, confirmed bool) error {
	var err error
	if confirmed {
		err = f.Cancel(ctx)
	}
	f.bus.App.Publish(bus.AppEvent{Type: bus.AppCloseConfirm})
	return err
}

func (f *Flow) notify(level bus.Level, key string, params map[string]any) {
	f.bus.Notify(level, f.tr.Translate(key, params))
}

func (f *Flow) connectivity(op string, err error) {
	f.log.Warn("registration api unreachable", map[string]any{"op": op, "error": errString(err)})
	f.notify(bus.LevelDanger, keyAPIConnect, nil)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

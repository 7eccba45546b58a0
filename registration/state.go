package registration

// Phase is the screen section the registration is in.
type Phase int

const (
	// PhaseAccount: no profile yet; the user picks a username or e-mail.
	PhaseAccount Phase = iota
	// PhaseProfile: the profile exists and mandatory steps may be pending.
	PhaseProfile
	// PhaseComplete: the registration was finalized.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseAccount:
		return "account"
	case PhaseProfile:
		return "profile"
	default:
		return "complete"
	}
}

// Field names an identifier checked for availability.
type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
)

// CheckStatus is the availability state of an identifier.
type CheckStatus int

const (
	CheckIdle CheckStatus = iota
	CheckChecking
	CheckValid
	CheckInvalid
)

func (c CheckStatus) String() string {
	switch c {
	case CheckIdle:
		return "idle"
	case CheckChecking:
		return "checking"
	case CheckValid:
		return "valid"
	default:
		return "invalid"
	}
}

// IdentifierState tracks an input whose availability is checked remotely.
// Generation increases with every edit; results for older generations are
// ignored.
type IdentifierState struct {
	Value      string
	Status     CheckStatus
	Generation uint64
	Suggestion string
	// Suggesting is set while alternatives to a taken username are probed.
	Suggesting bool
}

// State is the complete registration screen state.
type State struct {
	Config   Config
	Profile  *Profile
	Schemes  SchemeMap
	Language string

	Username         IdentifierState
	Email            IdentifierState
	Code             string
	CodeInvalid      bool
	VerificationSent bool

	Password        string
	PasswordConfirm string
	PasswordError   string
	ModifyPassword  bool

	Complete bool
}

// Phase derives the current phase.
func (s State) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseComplete
	case s.Profile != nil:
		return PhaseProfile
	default:
		return PhaseAccount
	}
}

// PendingSteps computes the outstanding mandatory steps.
func (s State) PendingSteps() []StepDescriptor {
	return ComputePendingSteps(s.Config, s.Profile, s.Schemes)
}

// CanFinalize reports whether the finalize action is enabled.
func (s State) CanFinalize() bool {
	return s.Phase() == PhaseProfile && CanFinalize(s.PendingSteps())
}

// Identifier returns the input that becomes the username.
func (s State) Identifier() IdentifierState {
	if s.Config.EmailIsUsername {
		return s.Email
	}
	return s.Username
}

// CanRegister reports whether the username may be registered directly.
func (s State) CanRegister() bool {
	return !s.Config.VerifyEmail && s.Username.Status == CheckValid
}

// CanSendVerification reports whether a verification code may be requested.
func (s State) CanSendVerification() bool {
	return s.Config.VerifyEmail && s.Identifier().Status == CheckValid && s.Email.Value != ""
}

// PasswordEditable reports whether the password inputs accept input.
func (s State) PasswordEditable() bool {
	if s.Config.SetPassword == RequirementNo {
		return false
	}
	return s.ModifyPassword || s.Profile == nil || !s.Profile.PasswordSet
}

// Event is an input to Reduce.
type Event interface{ event() }

type (
	// ConfigLoaded installs the server registration config.
	ConfigLoaded struct {
		Config   Config
		Language string
	}
	// ProfileLoaded installs the profile; nil means none in progress.
	ProfileLoaded struct {
		Profile *Profile
		Schemes SchemeMap
	}
	// IdentifierEdited records an edit to a checked identifier.
	IdentifierEdited struct {
		Field      Field
		Value      string
		Generation uint64
	}
	// AvailabilityResolved records a check result.
	AvailabilityResolved struct {
		Field      Field
		Generation uint64
		Status     CheckStatus
	}
	// SuggestionFound ends the suggestion search. An empty Suggestion means
	// no alternative was found.
	SuggestionFound struct {
		Field      Field
		Generation uint64
		Suggestion string
	}
	// EmailEdited records an e-mail edit that needs no availability check.
	EmailEdited struct{ Value string }
	// CodeEdited records a verification code edit.
	CodeEdited struct{ Value string }
	// VerificationSent marks the verification code as sent.
	VerificationSent struct{}
	// CodeRejected marks the verification code as invalid.
	CodeRejected struct{}
	// LanguageSelected changes the verification e-mail language.
	LanguageSelected struct{ Language string }
	// NameEdited changes the profile display name.
	NameEdited struct{ Name string }
	// PasswordEdited records the password inputs.
	PasswordEdited struct {
		Password  string
		Confirm   string
		MinLength int
	}
	// PasswordChangeRequested unlocks the password inputs.
	PasswordChangeRequested struct{}
	// PasswordCleared empties the password inputs.
	PasswordCleared struct{}
	// Completed marks the registration finalized.
	Completed struct{}
	// Restarted resets every in-progress field after a cancellation.
	Restarted struct{}
)

func (ConfigLoaded) event()            {}
func (ProfileLoaded) event()           {}
func (IdentifierEdited) event()        {}
func (AvailabilityResolved) event()    {}
func (SuggestionFound) event()         {}
func (EmailEdited) event()             {}
func (CodeEdited) event()              {}
func (VerificationSent) event()        {}
func (CodeRejected) event()            {}
func (LanguageSelected) event()        {}
func (NameEdited) event()              {}
func (PasswordEdited) event()          {}
func (PasswordChangeRequested) event() {}
func (PasswordCleared) event()         {}
func (Completed) event()               {}
func (Restarted) event()               {}

// Reduce returns the state after ev. It never mutates s.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case ConfigLoaded:
		s.Config = ev.Config
		if ev.Language != "" {
			s.Language = ev.Language
		}

	case ProfileLoaded:
		s.Profile = copyProfile(ev.Profile)
		s.Schemes = copySchemes(ev.Schemes)

	case IdentifierEdited:
		id := s.identifier(ev.Field)
		if ev.Generation < id.Generation {
			return s
		}
		next := IdentifierState{Value: ev.Value, Generation: ev.Generation, Status: CheckChecking}
		if ev.Value == "" {
			next.Status = CheckIdle
		}
		s = s.withIdentifier(ev.Field, next)

	case AvailabilityResolved:
		id := s.identifier(ev.Field)
		if ev.Generation != id.Generation {
			return s
		}
		id.Status = ev.Status
		id.Suggesting = ev.Status == CheckInvalid && ev.Field == FieldUsername
		if ev.Status != CheckInvalid {
			id.Suggestion = ""
		}
		s = s.withIdentifier(ev.Field, id)

	case SuggestionFound:
		id := s.identifier(ev.Field)
		if ev.Generation != id.Generation || id.Status != CheckInvalid {
			return s
		}
		id.Suggesting = false
		if ev.Suggestion != "" {
			id.Suggestion = ev.Suggestion
		}
		s = s.withIdentifier(ev.Field, id)

	case EmailEdited:
		s.Email.Value = ev.Value

	case CodeEdited:
		s.Code = ev.Value
		s.CodeInvalid = ev.Value == ""

	case VerificationSent:
		s.VerificationSent = true

	case CodeRejected:
		s.CodeInvalid = true

	case LanguageSelected:
		s.Language = ev.Language

	case NameEdited:
		if s.Profile != nil {
			p := *s.Profile
			p.Name = ev.Name
			s.Profile = &p
		}

	case PasswordEdited:
		s.Password = ev.Password
		s.PasswordConfirm = ev.Confirm
		s.PasswordError = CheckPassword(ev.Password, ev.Confirm, ev.MinLength)

	case PasswordChangeRequested:
		s.ModifyPassword = true

	case PasswordCleared:
		s.Password = ""
		s.PasswordConfirm = ""
		s.PasswordError = ""
		s.ModifyPassword = false

	case Completed:
		s.Complete = true
		s.Username = IdentifierState{Generation: s.Username.Generation}

	case Restarted:
		s.Username = IdentifierState{Generation: s.Username.Generation}
		s.Email = IdentifierState{Generation: s.Email.Generation}
		s.Code = ""
		s.CodeInvalid = false
		s.VerificationSent = false
		s.Profile = nil
		s.Schemes = nil
		s.Password = ""
		s.PasswordConfirm = ""
		s.PasswordError = ""
		s.ModifyPassword = false
		s.Complete = false
	}
	return s
}

func (s State) identifier(f Field) IdentifierState {
	if f == FieldEmail {
		return s.Email
	}
	return s.Username
}

func (s State) withIdentifier(f Field, id IdentifierState) State {
	if f == FieldEmail {
		s.Email = id
	} else {
		s.Username = id
	}
	return s
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func copySchemes(m SchemeMap) SchemeMap {
	if m == nil {
		return nil
	}
	c := make(SchemeMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

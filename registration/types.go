// Package registration implements the self-registration flow: the step gate
// deciding which mandatory steps are outstanding, the pure state reducer, and
// the Flow controller that talks to the registration API.
package registration

// Requirement is the tri-state mandatory flag used by the registration config.
type Requirement string

const (
	RequirementNo       Requirement = "no"
	RequirementOptional Requirement = "optional"
	RequirementAlways   Requirement = "always"
)

// Scheme is an authentication scheme a new user may register.
type Scheme struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name,omitempty"`
	Register    Requirement `json:"register"`
}

// Label returns the display name, or the name when none is set.
func (s Scheme) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Config is the server-supplied registration configuration.
type Config struct {
	SetPassword     Requirement `json:"set-password"`
	VerifyEmail     bool        `json:"verify-email"`
	EmailIsUsername bool        `json:"email-is-username"`
	Schemes         []Scheme    `json:"schemes,omitempty"`
	Languages       []string    `json:"languages,omitempty"`
}

// Profile is the registration profile stored server-side.
type Profile struct {
	Username    string `json:"username"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PasswordSet bool   `json:"password_set"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// SchemeMap records, per scheme name, whether the user completed its
// registration.
type SchemeMap map[string]bool

// StepKind identifies a mandatory step.
type StepKind string

const (
	StepPassword StepKind = "password"
	StepScheme   StepKind = "scheme"
)

// StepDescriptor describes an outstanding mandatory step.
type StepDescriptor struct {
	Kind        StepKind
	Scheme      string
	DisplayName string
}

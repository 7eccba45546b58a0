package bus

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notification is a transient global message shown to the user.
type Notification struct {
	Level   Level
	Message string
}

// AppEventType identifies an App topic message.
type AppEventType string

const (
	// AppRegistration asks the screen to reload the registration session.
	AppRegistration AppEventType = "registration"
	// AppRegistrationComplete signals the registration was finalized.
	AppRegistrationComplete AppEventType = "registrationComplete"
	// AppConfirm asks the screen to show a confirmation dialog.
	AppConfirm AppEventType = "confirm"
	// AppCloseConfirm asks the screen to dismiss the confirmation dialog.
	AppCloseConfirm AppEventType = "closeConfirm"
)

// AppEvent is a screen-level message.
type AppEvent struct {
	Type    AppEventType
	Title   string
	Message string
	// Callback receives the user's answer for AppConfirm.
	Callback func(confirmed bool)
}

// ModPluginEventType identifies a ModPlugin topic message.
type ModPluginEventType string

const (
	// ModCheck asks the parameters validator to check the entity.
	ModCheck ModPluginEventType = "check"
	// ModValid reports the parameters are valid.
	ModValid ModPluginEventType = "modValid"
	// ModInvalid reports the parameters are invalid.
	ModInvalid ModPluginEventType = "modInvalid"
)

// ModPluginEvent carries parameter validation traffic for the plugin editor.
// Entity is opaque to the bus.
type ModPluginEvent struct {
	Type   ModPluginEventType
	Module string
	Entity any
	Errors []string
}

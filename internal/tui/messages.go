package tui

import "github.com/initializ/glewlwyd-console/bus"

// StepBackMsg is emitted by a step when the user presses backspace at the first sub-phase.
type StepBackMsg struct{}

// StepCompleteMsg is emitted by a step when it finishes.
type StepCompleteMsg struct{}

// ResetMsg sends the wizard back to its first step.
type ResetMsg struct{}

// ValidationResultMsg carries the result of an async validation.
type ValidationResultMsg struct {
	Err error
}

// OpResultMsg carries the result of a remote operation started by a step.
type OpResultMsg struct {
	Op  string
	Err error
}

// StateChangedMsg tells steps to re-read the screen state.
type StateChangedMsg struct{}

// NotificationMsg is a bus notification shown as a toast.
type NotificationMsg bus.Notification

// toastExpiredMsg clears the toast it was scheduled for.
type toastExpiredMsg struct{ seq int }

// ConfirmMsg opens the confirmation dialog. Callback receives the answer.
type ConfirmMsg struct {
	Title    string
	Message  string
	Callback func(confirmed bool)
}

// CloseConfirmMsg dismisses the confirmation dialog.
type CloseConfirmMsg struct{}

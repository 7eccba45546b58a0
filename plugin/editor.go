package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/forms"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/logging"
)

const (
	keyNameMandatory = "admin.error-mod-name-mandatory"
	keyTypeMandatory = "admin.error-mod-type-mandatory"
	keyNameExists    = "admin.error-mod-name-exist"
	keyImportError   = "admin.import-error"
	keySaved         = "admin.mod-saved"
	keyAPIConnect    = "error-api-connect"
)

var (
	// ErrInvalidParameters blocks a submission whose parameters failed validation.
	ErrInvalidParameters = errors.New("plugin parameters are invalid")
	// ErrNotValidated is returned when no validator answered the check request.
	ErrNotValidated = errors.New("plugin parameters were not validated")
	// ErrNotAccepted is returned by Commit before a submission was accepted.
	ErrNotAccepted = errors.New("plugin entity has not been accepted")
	// ErrExportUnsaved refuses exporting an entity that was never saved.
	ErrExportUnsaved = errors.New("cannot export an unsaved plugin")
)

// EditorOptions configures an Editor.
type EditorOptions struct {
	Mode       Mode
	Role       Role
	Entity     Entity
	Remote     Remote
	Bus        *bus.Bus
	Translator i18n.Translator
	Logger     logging.Logger
	// OnAccept runs when a submission passes every check.
	OnAccept func(Entity)
}

// Editor holds the state of one entity edit dialog.
type Editor struct {
	mode     Mode
	role     Role
	remote   Remote
	bus      *bus.Bus
	tr       i18n.Translator
	log      logging.Logger
	onAccept func(Entity)
	unsub    func()

	mu              sync.Mutex
	entity          Entity
	parametersValid bool
	nameErr         *forms.FieldError
	typeErr         *forms.FieldError
	hasError        bool
	accepted        bool
	validationErrs  []string

	// set while Submit waits for the validator's answer
	pending   bool
	answered  bool
	submitCtx context.Context
	submitErr error
}

// NewEditor creates an Editor subscribed to the ModPlugin topic. Call Close
// to unsubscribe.
func NewEditor(opts EditorOptions) *Editor {
	e := &Editor{
		mode:            opts.Mode,
		role:            opts.Role,
		remote:          opts.Remote,
		bus:             opts.Bus,
		tr:              opts.Translator,
		log:             opts.Logger,
		onAccept:        opts.OnAccept,
		entity:          opts.Entity.Clone(),
		parametersValid: true,
	}
	if e.role == "" {
		e.role = RolePlugin
	}
	if e.bus == nil {
		e.bus = bus.New()
	}
	if e.tr == nil {
		e.tr = i18n.Static{}
	}
	if e.log == nil {
		e.log = logging.Nop{}
	}
	if e.onAccept == nil {
		e.onAccept = func(Entity) {}
	}
	e.unsub = e.bus.ModPlugin.Subscribe(e.handle)
	return e
}

// Close unsubscribes the editor from the bus.
func (e *Editor) Close() { e.unsub() }

// Mode returns the editor mode.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Role returns the edited entity role.
func (e *Editor) Role() Role { return e.role }

// Entity returns a copy of the entity being edited.
func (e *Editor) Entity() Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entity.Clone()
}

// NameError returns the inline name error, if any.
func (e *Editor) NameError() *forms.FieldError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nameErr
}

// TypeError returns the inline module type error, if any.
func (e *Editor) TypeError() *forms.FieldError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typeErr
}

// HasError reports whether the form-level error marker is shown.
func (e *Editor) HasError() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasError
}

// ValidationErrors returns the last parameter schema violations.
func (e *Editor) ValidationErrors() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.validationErrs...)
}

// Accepted reports whether the last submission passed every check.
func (e *Editor) Accepted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accepted
}

// SetName changes the entity name. The name is fixed in edit mode.
func (e *Editor) SetName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeAdd {
		return
	}
	e.entity.Name = name
	e.accepted = false
}

// SetDisplayName changes the display name.
func (e *Editor) SetDisplayName(name string) {
	e.update(func(en *Entity) { en.DisplayName = name })
}

// SetModule changes the module type.
func (e *Editor) SetModule(module string) {
	e.update(func(en *Entity) { en.Module = module })
}

// SetEnabled changes the enabled flag.
func (e *Editor) SetEnabled(enabled bool) {
	e.update(func(en *Entity) { en.Enabled = enabled })
}

// ToggleReadonly flips the readonly flag. Schemes have no readonly flag.
func (e *Editor) ToggleReadonly() {
	if e.role == RoleScheme {
		return
	}
	e.update(func(en *Entity) { en.Readonly = !en.Readonly })
}

// SetParameters replaces the parameters together with the parameter
// editor's own validity verdict.
func (e *Editor) SetParameters(params map[string]any, valid bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entity.Parameters = cloneMap(params)
	e.parametersValid = valid
	e.accepted = false
}

func (e *Editor) update(fn func(*Entity)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.entity)
	e.accepted = false
}

// Submit checks the name and module locally, then asks the validator to
// check the parameters and, on success, runs the add-mode name probe. It
// returns nil when the entity was accepted, a *forms.FieldError for an
// inline error, or the failure that blocked the submission.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	e.accepted = false
	if fe := e.checkFields(); fe != nil {
		e.mu.Unlock()
		return fe
	}
	e.pending = true
	e.answered = false
	e.submitCtx = ctx
	e.submitErr = nil
	entity := e.entity.Clone()
	e.mu.Unlock()

	e.bus.ModPlugin.Publish(bus.ModPluginEvent{Type: bus.ModCheck, Module: entity.Module, Entity: entity})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = false
	e.submitCtx = nil
	if !e.answered {
		return ErrNotValidated
	}
	return e.submitErr
}

// checkFields runs the mandatory field checks and sets the inline errors.
// The caller holds e.mu.
func (e *Editor) checkFields() *forms.FieldError {
	switch {
	case e.mode == ModeAdd && e.entity.Name == "":
		e.nameErr = forms.Validation("name", keyNameMandatory)
		e.typeErr = nil
		e.hasError = true
		return e.nameErr
	case e.entity.Module == "":
		e.nameErr = nil
		e.typeErr = forms.Validation("module", keyTypeMandatory)
		e.hasError = true
		return e.typeErr
	}
	e.nameErr = nil
	e.typeErr = nil
	return nil
}

func (e *Editor) handle(ev bus.ModPluginEvent) {
	e.mu.Lock()
	if !e.pending || e.answered {
		e.mu.Unlock()
		return
	}
	switch ev.Type {
	case bus.ModInvalid:
		e.answered = true
		e.hasError = true
		e.validationErrs = ev.Errors
		e.submitErr = ErrInvalidParameters
		e.mu.Unlock()
	case bus.ModValid:
		e.answered = true
		e.hasError = false
		e.validationErrs = nil
		ctx := e.submitCtx
		e.mu.Unlock()
		e.checkAndAccept(ctx)
	default:
		e.mu.Unlock()
	}
}

func (e *Editor) checkAndAccept(ctx context.Context) {
	e.mu.Lock()
	entity := e.entity.Clone()
	mode := e.mode
	if !e.parametersValid {
		e.submitErr = ErrInvalidParameters
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if mode == ModeAdd {
		if ctx == nil {
			ctx = context.Background()
		}
		_, err := e.remote.Get(ctx, entity.Name)
		switch {
		case err == nil:
			e.mu.Lock()
			e.nameErr = forms.Conflict("name", keyNameExists)
			e.hasError = true
			e.submitErr = e.nameErr
			e.mu.Unlock()
			return
		case !api.IsNotFound(err):
			e.log.Warn("plugin name probe failed", map[string]any{"name": entity.Name, "error": err.Error()})
			e.bus.Notify(bus.LevelDanger, e.tr.Translate(keyAPIConnect, nil))
			e.mu.Lock()
			e.submitErr = err
			e.mu.Unlock()
			return
		}
	}

	e.mu.Lock()
	e.accepted = true
	e.mu.Unlock()
	e.onAccept(entity)
}

// Commit stores an accepted entity: created in add mode, updated in edit
// mode. A created entity turns the editor into edit mode.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	accepted := e.accepted
	entity := e.entity.Clone()
	mode := e.mode
	e.mu.Unlock()
	if !accepted {
		return ErrNotAccepted
	}

	var err error
	if mode == ModeAdd {
		err = e.remote.Create(ctx, entity)
	} else {
		err = e.remote.Update(ctx, entity)
	}
	if err != nil {
		if api.Classify(err) == api.KindConnectivity {
			e.bus.Notify(bus.LevelDanger, e.tr.Translate(keyAPIConnect, nil))
		}
		return err
	}
	e.mu.Lock()
	e.mode = ModeEdit
	e.mu.Unlock()
	e.log.Info("plugin saved", map[string]any{"name": entity.Name, "module": entity.Module})
	e.bus.Notify(bus.LevelInfo, e.tr.Translate(keySaved, map[string]any{"name": entity.Name}))
	return nil
}

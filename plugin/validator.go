package plugin

import (
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/logging"
)

// ParametersValidator answers ModPlugin check requests with modValid or
// modInvalid after validating the entity parameters against the catalog.
type ParametersValidator struct {
	catalog *Catalog
	bus     *bus.Bus
	log     logging.Logger
}

// NewParametersValidator creates a validator. Call Start to subscribe it.
func NewParametersValidator(catalog *Catalog, b *bus.Bus, log logging.Logger) *ParametersValidator {
	if log == nil {
		log = logging.Nop{}
	}
	return &ParametersValidator{catalog: catalog, bus: b, log: log}
}

// Start subscribes the validator to the ModPlugin topic.
func (v *ParametersValidator) Start() (stop func()) {
	return v.bus.ModPlugin.Subscribe(v.handle)
}

func (v *ParametersValidator) handle(ev bus.ModPluginEvent) {
	if ev.Type != bus.ModCheck {
		return
	}
	entity, _ := ev.Entity.(Entity)

	errs, err := v.catalog.ValidateParameters(entity.Module, entity.Parameters)
	if err != nil {
		errs = append(errs, err.Error())
	}

	reply := bus.ModPluginEvent{Type: bus.ModValid, Module: entity.Module, Entity: ev.Entity}
	if len(errs) > 0 {
		reply.Type = bus.ModInvalid
		reply.Errors = errs
		v.log.Debug("plugin parameters rejected", map[string]any{
			"module": entity.Module, "errors": errs,
		})
	}
	v.bus.ModPlugin.Publish(reply)
}

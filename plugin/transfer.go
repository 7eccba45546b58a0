package plugin

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/initializ/glewlwyd-console/bus"
)

// Export returns the entity as indented JSON and its download file name.
// Entities that were never saved cannot be exported.
func (e *Editor) Export() (filename string, data []byte, err error) {
	e.mu.Lock()
	mode := e.mode
	entity := e.entity.Clone()
	e.mu.Unlock()

	if mode == ModeAdd {
		return "", nil, ErrExportUnsaved
	}
	data, err = json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encoding plugin %s: %w", entity.Name, err)
	}
	return entity.Name + ".json", append(data, '\n'), nil
}

// Import replaces the entity with the JSON document data. In edit mode the
// current name and module are kept when set. An invalid document publishes
// an import error notification and leaves the entity unchanged.
func (e *Editor) Import(data []byte) error {
	imported, err := decodeEntity(data)
	if err != nil {
		e.log.Warn("plugin import rejected", map[string]any{"error": err.Error()})
		e.bus.Notify(bus.LevelDanger, e.tr.Translate(keyImportError, nil))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeEdit {
		if e.entity.Name != "" {
			imported.Name = e.entity.Name
		}
		if e.entity.Module != "" {
			imported.Module = e.entity.Module
		}
	}
	e.entity = imported
	e.parametersValid = true
	e.accepted = false
	e.nameErr = nil
	e.typeErr = nil
	e.hasError = false
	return nil
}

func decodeEntity(data []byte) (Entity, error) {
	if !json.Valid(data) {
		return Entity{}, fmt.Errorf("import: document is not valid JSON")
	}
	errs, err := ValidateEnvelope(data)
	if err != nil {
		return Entity{}, fmt.Errorf("import: %w", err)
	}
	if len(errs) > 0 {
		return Entity{}, fmt.Errorf("import: %s", strings.Join(errs, "; "))
	}
	var imported Entity
	if err := json.Unmarshal(data, &imported); err != nil {
		return Entity{}, fmt.Errorf("import: %w", err)
	}
	return imported, nil
}

package plugin

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var builtinTypes embed.FS

//go:embed envelope/entity.json
var envelopeSchema []byte

var (
	compiledEnvelope *gojsonschema.Schema
	envelopeOnce     sync.Once
	envelopeErr      error
)

func getEnvelopeSchema() (*gojsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		compiledEnvelope, envelopeErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(envelopeSchema))
	})
	return compiledEnvelope, envelopeErr
}

// ValidateEnvelope validates raw JSON against the entity envelope schema.
// It returns the validation error descriptions, and an error only when the
// document cannot be processed at all.
func ValidateEnvelope(data []byte) ([]string, error) {
	schema, err := getEnvelopeSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling entity schema: %w", err)
	}
	return validate(schema, gojsonschema.NewBytesLoader(data))
}

// Catalog holds the known module types and their compiled parameter schemas.
type Catalog struct {
	mu       sync.Mutex
	types    map[string]ModType
	compiled map[string]*gojsonschema.Schema
}

// NewCatalog returns a catalog of the built-in module types.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		types:    make(map[string]ModType),
		compiled: make(map[string]*gojsonschema.Schema),
	}
	if err := c.load(builtinTypes, "schemas"); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDir adds or replaces module types from every *.json file in dir.
func (c *Catalog) LoadDir(dir string) error {
	return c.load(os.DirFS(dir), ".")
}

func (c *Catalog) load(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading module types: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var mt ModType
		if err := json.Unmarshal(data, &mt); err != nil {
			return fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		if mt.Name == "" {
			mt.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		c.put(mt)
	}
	return nil
}

func (c *Catalog) put(mt ModType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[mt.Name] = mt
	delete(c.compiled, mt.Name)
}

// Merge adds the server's module types. A server entry without a schema
// keeps the schema already known for that name.
func (c *Catalog) Merge(types []ModType) {
	for _, mt := range types {
		c.mu.Lock()
		if prev, ok := c.types[mt.Name]; ok && len(mt.ParametersSchema) == 0 {
			mt.ParametersSchema = prev.ParametersSchema
		}
		c.mu.Unlock()
		c.put(mt)
	}
}

// Types returns every known type sorted by name.
func (c *Catalog) Types() []ModType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ModType, 0, len(c.types))
	for _, mt := range c.types {
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the type called name.
func (c *Catalog) Lookup(name string) (ModType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mt, ok := c.types[name]
	return mt, ok
}

// ValidateParameters checks params against the schema of module. Modules
// without a known schema accept any parameters.
func (c *Catalog) ValidateParameters(module string, params map[string]any) ([]string, error) {
	schema, err := c.schema(module)
	if err != nil || schema == nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	return validate(schema, gojsonschema.NewGoLoader(params))
}

func (c *Catalog) schema(module string) (*gojsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.compiled[module]; ok {
		return s, nil
	}
	mt, ok := c.types[module]
	if !ok || len(mt.ParametersSchema) == 0 {
		return nil, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(mt.ParametersSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling %s parameters schema: %w", module, err)
	}
	c.compiled[module] = s
	return s, nil
}

func validate(schema *gojsonschema.Schema, doc gojsonschema.JSONLoader) ([]string, error) {
	result, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}

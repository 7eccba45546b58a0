package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initializ/glewlwyd-console/api"
	"github.com/initializ/glewlwyd-console/bus"
	"github.com/initializ/glewlwyd-console/i18n"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/screens"
	"github.com/initializ/glewlwyd-console/logging"
	"github.com/initializ/glewlwyd-console/plugin"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage plugin configurations",
}

var pluginTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the known plugin module types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPluginSession(cmd, false, func(ctx context.Context, a *app, s *pluginSession) error {
			return listTypes(s, cmd.OutOrStdout())
		})
	},
}

var pluginAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a plugin configuration",
	Args:  cobra.NoArgs,
	RunE:  runPluginAdd,
}

var pluginEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Edit an existing plugin configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginEdit,
}

var pluginExportCmd = &cobra.Command{
	Use:   "export NAME",
	Short: "Write a plugin configuration to NAME.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("output-dir")
		return withPluginSession(cmd, false, func(ctx context.Context, a *app, s *pluginSession) error {
			return exportPlugin(ctx, s, args[0], dir, cmd.OutOrStdout())
		})
	},
}

var pluginImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Create or update a plugin configuration from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		role, _ := cmd.Flags().GetString("role")
		return withPluginSession(cmd, false, func(ctx context.Context, a *app, s *pluginSession) error {
			return importPlugin(ctx, s, plugin.Role(role), data, cmd.OutOrStdout())
		})
	},
}

func init() {
	pluginAddCmd.Flags().String("module", "", "module type")
	pluginAddCmd.Flags().String("name", "", "plugin name")
	pluginAddCmd.Flags().String("display-name", "", "name shown to users")
	pluginAddCmd.Flags().String("params", "", "parameters as a JSON object")
	pluginAddCmd.Flags().Bool("disabled", false, "create the plugin disabled")

	for _, c := range []*cobra.Command{pluginAddCmd, pluginEditCmd} {
		c.Flags().String("from", "", "load the entity from a JSON file instead of the wizard")
		c.Flags().Bool("non-interactive", false, "save from flags without the wizard")
		c.Flags().String("export-dir", ".", "directory the wizard exports into")
	}
	for _, c := range []*cobra.Command{pluginAddCmd, pluginEditCmd, pluginImportCmd} {
		c.Flags().String("role", string(plugin.RolePlugin), "entity kind: plugin, scheme, or user")
	}
	pluginExportCmd.Flags().StringP("output-dir", "o", ".", "output directory, or - for stdout")

	pluginCmd.AddCommand(pluginTypesCmd)
	pluginCmd.AddCommand(pluginAddCmd)
	pluginCmd.AddCommand(pluginEditCmd)
	pluginCmd.AddCommand(pluginExportCmd)
	pluginCmd.AddCommand(pluginImportCmd)
}

// pluginSession holds the catalog and the running parameters validator.
type pluginSession struct {
	remote  plugin.Remote
	catalog *plugin.Catalog
	bus     *bus.Bus
	tr      i18n.Translator
	log     logging.Logger
	stop    func()
}

// newPluginSession builds the catalog from the built-in schemas, schemasDir
// and the server's module types, then starts the validator.
func newPluginSession(ctx context.Context, remote plugin.Remote, b *bus.Bus, tr i18n.Translator, log logging.Logger, schemasDir string) (*pluginSession, error) {
	catalog, err := plugin.NewCatalog()
	if err != nil {
		return nil, err
	}
	if schemasDir != "" {
		if err := catalog.LoadDir(schemasDir); err != nil {
			return nil, err
		}
	}
	types, err := remote.Types(ctx)
	if err != nil {
		if api.Classify(err) == api.KindConnectivity {
			return nil, fmt.Errorf("fetching module types: %w", err)
		}
		log.Warn("server module types unavailable", map[string]any{"error": err.Error()})
	}
	catalog.Merge(types)

	return &pluginSession{
		remote:  remote,
		catalog: catalog,
		bus:     b,
		tr:      tr,
		log:     log,
		stop:    plugin.NewParametersValidator(catalog, b, log).Start(),
	}, nil
}

func (s *pluginSession) Close() { s.stop() }

func (s *pluginSession) editor(mode plugin.Mode, role plugin.Role, entity plugin.Entity) *plugin.Editor {
	return plugin.NewEditor(plugin.EditorOptions{
		Mode:       mode,
		Role:       role,
		Entity:     entity,
		Remote:     s.remote,
		Bus:        s.bus,
		Translator: s.tr,
		Logger:     s.log,
	})
}

// save submits and commits ed, printing the validation errors that block it.
func (s *pluginSession) save(ctx context.Context, ed *plugin.Editor, out io.Writer) error {
	name := ed.Entity().Name
	if err := ed.Submit(ctx); err != nil {
		if errors.Is(err, plugin.ErrInvalidParameters) {
			for _, e := range ed.ValidationErrors() {
				fmt.Fprintf(out, "  • %s\n", e)
			}
		}
		return fmt.Errorf("plugin %s: %w", name, describe(s.tr, err))
	}
	if err := ed.Commit(ctx); err != nil {
		return fmt.Errorf("saving plugin %s: %w", name, err)
	}
	return nil
}

func withPluginSession(cmd *cobra.Command, interactive bool, fn func(ctx context.Context, a *app, s *pluginSession) error) error {
	a, err := newApp(cmd, interactive)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if !interactive {
		stop := printNotifications(a.bus, cmd.ErrOrStderr())
		defer stop()
	}
	s, err := newPluginSession(ctx, plugin.NewHTTPRemote(a.client), a.bus, a.tr, a.log, a.cfg.SchemasDir)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, a, s)
}

func listTypes(s *pluginSession, out io.Writer) error {
	for _, mt := range s.catalog.Types() {
		fmt.Fprintf(out, "%-16s %-20s %s\n", mt.Name, mt.Label(), mt.Description)
	}
	return nil
}

func runPluginAdd(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetString("from")
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	role, _ := cmd.Flags().GetString("role")
	interactive := from == "" && !nonInteractive && isTerminal()

	var entity plugin.Entity
	entity.Module, _ = cmd.Flags().GetString("module")
	entity.Name, _ = cmd.Flags().GetString("name")
	entity.DisplayName, _ = cmd.Flags().GetString("display-name")
	disabled, _ := cmd.Flags().GetBool("disabled")
	entity.Enabled = !disabled
	if raw, _ := cmd.Flags().GetString("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entity.Parameters); err != nil {
			return fmt.Errorf("--params: %w", err)
		}
	}

	return withPluginSession(cmd, interactive, func(ctx context.Context, a *app, s *pluginSession) error {
		ed := s.editor(plugin.ModeAdd, plugin.Role(role), entity)
		defer ed.Close()
		if from != "" {
			if err := importFile(ed, from); err != nil {
				return err
			}
		}
		if interactive {
			return runEditorTUI(ctx, cmd, a, s, ed)
		}
		if err := s.save(ctx, ed, cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", ed.Entity().Name)
		return nil
	})
}

func runPluginEdit(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	role, _ := cmd.Flags().GetString("role")
	interactive := from == "" && !nonInteractive && isTerminal()
	if !interactive && from == "" {
		return errors.New("--from is required without a terminal")
	}

	return withPluginSession(cmd, interactive, func(ctx context.Context, a *app, s *pluginSession) error {
		current, err := s.remote.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading plugin %s: %w", args[0], err)
		}
		ed := s.editor(plugin.ModeEdit, plugin.Role(role), *current)
		defer ed.Close()
		if from != "" {
			if err := importFile(ed, from); err != nil {
				return err
			}
		}
		if interactive {
			return runEditorTUI(ctx, cmd, a, s, ed)
		}
		if err := s.save(ctx, ed, cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", ed.Entity().Name)
		return nil
	})
}

func importFile(ed *plugin.Editor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return ed.Import(data)
}

func runEditorTUI(ctx context.Context, cmd *cobra.Command, a *app, s *pluginSession, ed *plugin.Editor) error {
	exportDir, _ := cmd.Flags().GetString("export-dir")
	result, err := screens.RunPluginEditor(ctx, screens.PluginEditorOptions{
		Editor:     ed,
		Catalog:    s.catalog,
		Bus:        s.bus,
		Translator: s.tr,
		Theme:      a.theme(),
		Version:    appVersion,
		ExportDir:  exportDir,
	})
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Plugin editor closed without saving.")
		return nil
	}
	if err != nil {
		return err
	}
	if result.Saved {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", ed.Entity().Name)
	}
	if result.ExportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", result.ExportPath)
	}
	return nil
}

// exportPlugin writes the stored entity to dir, or to out when dir is "-".
func exportPlugin(ctx context.Context, s *pluginSession, name, dir string, out io.Writer) error {
	current, err := s.remote.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("loading plugin %s: %w", name, err)
	}
	ed := s.editor(plugin.ModeEdit, plugin.RolePlugin, *current)
	defer ed.Close()

	filename, data, err := ed.Export()
	if err != nil {
		return err
	}
	if dir == "-" {
		_, err := out.Write(data)
		return err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Exported %s to %s\n", name, path)
	return nil
}

// importPlugin updates the entity named in data when it exists and creates
// it otherwise.
func importPlugin(ctx context.Context, s *pluginSession, role plugin.Role, data []byte, out io.Writer) error {
	var head struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &head); err != nil || strings.TrimSpace(head.Name) == "" {
		return errors.New("import: the document has no plugin name")
	}

	mode, entity := plugin.ModeAdd, plugin.Entity{}
	current, err := s.remote.Get(ctx, head.Name)
	switch {
	case err == nil:
		mode, entity = plugin.ModeEdit, *current
	case !api.IsNotFound(err):
		return fmt.Errorf("loading plugin %s: %w", head.Name, err)
	}

	ed := s.editor(mode, role, entity)
	defer ed.Close()
	if err := ed.Import(data); err != nil {
		return err
	}
	if err := s.save(ctx, ed, out); err != nil {
		return err
	}
	verb := "Created"
	if mode == plugin.ModeEdit {
		verb = "Updated"
	}
	fmt.Fprintf(out, "%s %s\n", verb, ed.Entity().Name)
	return nil
}

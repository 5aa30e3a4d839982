package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zmodels/internal/codec"
	"zmodels/internal/domain"
	"zmodels/internal/loader"
	"zmodels/internal/service"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables for every model in the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Tables are created when the catalog loads; report what exists now
			for _, s := range a.catalog.Schemas() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", s.Model, s.Table)
			}
			return nil
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the loaded schemas with derived table names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loader.ExportYAML(a.catalog.Schemas())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all MODEL",
		Short: "List every row of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.catalog.All(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.export(cmd, models)
		},
	}
}

func newFilterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filter MODEL [field=value ...]",
		Short: "List rows whose fields equal the given values (null ignores a field)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := service.ParseTerms(args[1:])
			if err != nil {
				return err
			}
			models, err := a.catalog.Filter(cmd.Context(), args[0], terms)
			if err != nil {
				return err
			}
			return a.export(cmd, models)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get MODEL [field=value ...]",
		Short: "Show the single row matching the given values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := service.ParseTerms(args[1:])
			if err != nil {
				return err
			}
			m, err := a.catalog.Get(cmd.Context(), args[0], terms)
			if err != nil {
				return err
			}
			return a.export(cmd, []*domain.Model{m})
		},
	}
}

func newGetOrCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-or-create MODEL field=value ...",
		Short: "Show the row matching the given values, creating it if none exists",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := service.ParseTerms(args[1:])
			if err != nil {
				return err
			}
			m, created, err := a.catalog.GetOrCreate(cmd.Context(), args[0], terms)
			if err != nil {
				return err
			}
			if created {
				a.log.Info().Str("model", m.Name()).Msg("created")
			}
			return a.export(cmd, []*domain.Model{m})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create MODEL [field=value ...]",
		Short: "Insert a row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := service.ParseTerms(args[1:])
			if err != nil {
				return err
			}
			m, err := a.catalog.Create(cmd.Context(), args[0], attrs)
			if err != nil {
				return err
			}
			return a.export(cmd, []*domain.Model{m})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "import MODEL FILE",
		Short: "Create one row per object of a JSON or YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, path := args[0], args[1]

			format := inputFormat
			if format == "" {
				format = codec.FormatFromPath(path)
			}
			importer, err := codec.ImporterFor(format)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			sets, err := importer.Parse(f)
			if err != nil {
				return err
			}

			created, err := a.catalog.Import(cmd.Context(), model, sets)
			if err != nil {
				return fmt.Errorf("import %s: %d created before failure: %w", path, len(created), err)
			}
			return a.export(cmd, created)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: json or yaml (default: from file extension)")
	return cmd
}

func newLastIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "last-id MODEL",
		Short: "Print the session's last generated key (only meaningful in the same session as an insert)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.catalog.LastID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func (a *app) export(cmd *cobra.Command, models []*domain.Model) error {
	exporter, err := codec.ExporterFor(a.format)
	if err != nil {
		return err
	}
	return exporter.Export(models, cmd.OutOrStdout())
}

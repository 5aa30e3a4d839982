// Command zmodels manages model rows described by a YAML schema file.
//
// Usage:
//
//	zmodels migrate
//	zmodels create BlogPost title=Hi body=World
//	zmodels get BlogPost title=Hi
//	zmodels filter BlogPost body=null
//	zmodels serve --addr :8080 --watch
//	zmodels config init
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zmodels/internal/config"
	"zmodels/internal/database"
	"zmodels/internal/logger"
	"zmodels/internal/service"
)

// app holds the wiring shared by every command
type app struct {
	configPath string
	schemaPath string
	format     string

	cfg     *config.Config
	log     zerolog.Logger
	db      *database.DB
	events  *service.EventBus
	catalog *service.Catalog
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "zmodels",
		Short:         "Generic repository over SQL tables described by a schema file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSetup(cmd) {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: search $ZMODELS_CONFIG, ./zmodels.yaml, XDG and /etc)")
	root.PersistentFlags().StringVarP(&a.schemaPath, "schema", "s", "", "schema file (overrides config)")
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "text", "output format: text, json or yaml")

	root.AddCommand(
		newMigrateCmd(a),
		newSchemaCmd(a),
		newAllCmd(a),
		newFilterCmd(a),
		newGetCmd(a),
		newGetOrCreateCmd(a),
		newCreateCmd(a),
		newImportCmd(a),
		newLastIDCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)

	return root
}

// needsSetup is false for the config commands and cobra's help and completion
func needsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// setup loads config, opens the database and registers every schema
func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if a.configPath != "" {
		cfg, path, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.schemaPath != "" {
		cfg.Schema.Path = a.schemaPath
	}
	a.cfg = cfg

	a.log = logger.New(cfg.Log)
	if path != "" {
		a.log.Debug().Str("path", path).Msg("config loaded")
	}
	a.log.Debug().Msg(cfg.Summary())

	a.db, err = database.Open(ctx, cfg.Database, a.log)
	if err != nil {
		return err
	}

	a.events = service.NewEventBus()
	a.catalog = service.NewCatalog(a.db, a.events, a.log)
	return a.catalog.LoadFile(ctx, cfg.Schema.Path)
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

package main

import (
	"context"
	"fmt"
	"github.com/denismitr/docshift/internal/cli"
	"github.com/denismitr/docshift/internal/config"
	"github.com/denismitr/docshift/migration"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const registryNote = `Migration code is looked up in the registry compiled into this binary.
The stock docshift binary registers no migrations, so every migration file in
the folder fails to load. Build your own binary, or call docshift.NewMigrator
from your application, after importing the package of your migrations.`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docshift",
		Short:         "Timestamp ordered migrations for document databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default is ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().String("db", "", "database url, e.g. mongodb://localhost/app or sqlite://app.db")
	root.PersistentFlags().String("folder", "", "migrations folder")
	root.PersistentFlags().String("relative-to", "", "directory a relative migrations folder is resolved against")
	root.PersistentFlags().Bool("debug", false, "print debug output and queries")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newMigrateCmd(config.OpUp, "apply every migration newer than the latest ledger entry"),
		newMigrateCmd(config.OpDown, "revert every migration recorded in the ledger"),
		newCreateCmd(),
		newInitCmd(),
	)

	return root
}

func newMigrateCmd(op config.Op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(op),
		Short: short,
		Long:  short + ".\n\n" + registryNote,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, op)
			if err != nil {
				return err
			}

			app, closer, err := cli.New(cfg, migration.DefaultRegistry, nil)
			if err != nil {
				return err
			}

			defer func() {
				if closeErr := closer(); closeErr != nil {
					fmt.Fprintln(os.Stderr, aurora.Red("docshift: "), closeErr.Error())
				}
			}()

			ctx, cancel := runContext()
			defer cancel()

			state, err := app.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green("docshift: "), summary(state.Direction, len(state.Executed)))

			return nil
		},
	}

	cmd.Flags().String("table", "", "ledger table name (default "+config.DefaultTable+")")
	cmd.Flags().Duration("wait", 0, "wait up to this long for the database to answer pings")

	return cmd
}

// runContext is cancelled by SIGINT or SIGTERM only, a long migration
// must not be cut off halfway through a set.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "scaffold a Go migration file in the migrations folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, "")
			if err != nil {
				return err
			}

			u, err := cli.CreateMigration(cfg, strings.Join(args, " "), time.Now)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green("docshift: "), "created", u.Filename)

			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "write a " + config.DefaultFile + " stub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			if path == "" {
				path = config.DefaultFile
			}

			if err := cli.InitCfg(path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green("docshift: "), "created", path)

			return nil
		},
	}
}

func resolve(cmd *cobra.Command, op config.Op) (config.Config, error) {
	v := config.New()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}

	if err := config.ReadFile(v, path); err != nil {
		return config.Config{}, &migration.ValidationError{Err: err}
	}

	if err := config.BindFlags(v, cmd); err != nil {
		return config.Config{}, errors.Wrap(err, "could not read flags")
	}

	return config.Resolve(v, op)
}

func summary(dir migration.Direction, n int) string {
	if n == 0 {
		return fmt.Sprintf("nothing to migrate %s", dir)
	}

	if dir == migration.Down {
		return fmt.Sprintf("rolled back %d migration(s)", n)
	}

	return fmt.Sprintf("applied %d migration(s)", n)
}

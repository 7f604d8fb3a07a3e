// Package main is the sync client CLI: run the scheduler, refresh targets on
// demand, probe the API, and manage secrets.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"exchangesync/config"
	"exchangesync/internal/app/secrets"
	"exchangesync/internal/pkg/app"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:           "exchangesync",
		Short:         "Sync exchange data from the API into a spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "config", "directory holding config.yml and secrets")

	rootCmd.AddCommand(runCmd(), refreshCmd(), healthCmd(), secretCmd())

	if err := rootCmd.Execute(); err != nil {
		color.Red("✖ %v", err)
		os.Exit(1)
	}
}

func newApp() (*app.App, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled sync loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [target|all]",
		Short: "Refresh one target now, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			a, err := app.NewApp(cfg)
			if err != nil {
				return err
			}

			names := []string{}
			if len(args) == 0 || args[0] == "all" {
				for _, t := range cfg.Targets {
					names = append(names, t.Name)
				}
			} else {
				names = append(names, args[0])
			}

			failed := false
			for _, name := range names {
				result, err := a.Service().Refresh(name)
				if err != nil {
					color.Red("✖ %s: %v", name, err)
					failed = true
					continue
				}
				color.Green("✔ %s: %d rows in %.2fs", name, result.RowsUpdated, result.ExecutionTime)
			}
			if failed {
				return fmt.Errorf("one or more targets failed")
			}
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the API health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			h, err := a.Service().Health()
			if err != nil {
				return err
			}
			color.Green("✔ status=%s database=%s api_version=%s", h.Status, h.Database, h.APIVersion)
			return nil
		},
	}
}

func secretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage stored credentials",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <name> <value>",
			Short: "Store a secret",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store := secrets.NewStore(configDir)
				if err := store.Set(args[0], args[1]); err != nil {
					return err
				}
				color.Green("✔ %s stored", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <name>",
			Short: "Show a truncated preview of a secret",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store := secrets.NewStore(configDir)
				v, err := store.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s = %s\n", args[0], secrets.Preview(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored secret names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store := secrets.NewStore(configDir)
				names, err := store.List()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Println(name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Remove a stored secret",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store := secrets.NewStore(configDir)
				if err := store.Delete(args[0]); err != nil {
					return err
				}
				color.Green("✔ %s deleted", args[0])
				return nil
			},
		},
	)
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/dataio"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in sample data into an empty store",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			seeded, err := dataio.NewService(e.db).SeedIfEmpty(cmd.Context())
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has projects; nothing seeded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sample data loaded")
			return nil
		}),
	}
}

func exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every table to JSON files",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			if dir == "" {
				dir = e.cfg.Data.Dir
			}
			sum, err := dataio.NewService(e.db).ExportAll(cmd.Context(), dir)
			if err != nil {
				return err
			}
			e.log.Info("export finished", zap.String("dir", dir))
			printSummary(cmd, "exported", sum)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default DATA_DIR)")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		dir     string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load JSON files written by export",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			if dir == "" {
				dir = e.cfg.Data.Dir
			}
			sum, err := dataio.NewService(e.db).ImportAll(cmd.Context(), dir, replace)
			if err != nil {
				return err
			}
			e.log.Info("import finished", zap.String("dir", dir), zap.Bool("replace", replace))
			printSummary(cmd, "imported", sum)
			return nil
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "input directory (default DATA_DIR)")
	cmd.Flags().BoolVar(&replace, "replace", false, "clear existing data first")
	return cmd
}

// migrateCmd exists for deployments that run migrations as a separate step;
// opening the store already migrates.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema up to date\n", e.db.Driver)
			return nil
		}),
	}
}

func printSummary(cmd *cobra.Command, verb string, s dataio.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(),
		"%s %d projects, %d feedback, %d reports, %d region budgets, %d sector budgets, %d annual budgets\n",
		verb, s.Projects, s.Feedback, s.Reports, s.RegionBudgets, s.SectorBudgets, s.AnnualBudgets)
}

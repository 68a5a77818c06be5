package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/efren319/GovFunds/internal/auth"
	"github.com/efren319/GovFunds/internal/reports/repository"
	"github.com/efren319/GovFunds/internal/reports/service"
	"github.com/efren319/GovFunds/internal/store"
)

func reportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List unresolved citizen reports",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			return printUnresolved(cmd.Context(), cmd.OutOrStdout(), e.db)
		}),
	}
}

func printUnresolved(ctx context.Context, out io.Writer, db *store.DB) error {
	svc := service.NewIntakeService(repository.NewReportRepository(db), nil, nil)

	open, err := svc.ListUnresolved(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		fmt.Fprintln(out, "no unresolved reports")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tTYPE\tSUBJECT\tSUBMITTED")
	names := make(map[int64]string)
	for _, r := range open {
		names[r.ProjectID] = r.ProjectName
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.ProjectName, r.Type, r.Subject, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts, err := svc.UnresolvedCounts(ctx)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT ID\tPROJECT\tOPEN")
	for _, id := range ids {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", id, names[id], counts[id])
	}
	return tw.Flush()
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <username> <password>",
		Short: "Print an ADMIN_CREDENTIALS entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", args[0], hash)
			return nil
		},
	}
}

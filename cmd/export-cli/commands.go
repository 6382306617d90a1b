package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"employee-export/internal/clients/export"
)

type globalOptions struct {
	baseURL string
	orgID   string
	userID  string
	timeout time.Duration
}

func (o *globalOptions) client() (*export.Client, error) {
	client := export.NewClient(o.baseURL)
	if o.orgID != "" || o.userID != "" {
		if err := client.SetIdentity(o.orgID, o.userID); err != nil {
			return nil, fmt.Errorf("invalid identity: %w", err)
		}
	}
	return client, nil
}

func (o *globalOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          "export-cli",
		Short:        "Submit and fetch employee exports",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("EXPORT_API_URL", "http://localhost:8000/api"), "export service base URL")
	cmd.PersistentFlags().StringVar(&opts.orgID, "org", "", "org id for the x-rh-identity header")
	cmd.PersistentFlags().StringVar(&opts.userID, "user", "", "user id for the x-rh-identity header")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newSubmitCommand(opts),
		newStatusCommand(opts),
		newDownloadCommand(opts),
		newListCommand(opts),
		newCancelCommand(opts),
	)
	return cmd
}

func newSubmitCommand(opts *globalOptions) *cobra.Command {
	var (
		req       export.ExportRequest
		minSalary float64
		maxSalary float64
		wait      bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a new export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-salary") {
				req.MinSalary = &minSalary
			}
			if cmd.Flags().Changed("max-salary") {
				req.MaxSalary = &maxSalary
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()

			receipt, err := client.Submit(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reference ID: %s\n", receipt.ReferenceID)
			fmt.Fprintf(out, "Status: %s\n", receipt.Status)
			fmt.Fprintf(out, "Estimated completion: %s\n", receipt.EstimatedCompletion.Format(time.RFC3339))

			if !wait {
				return nil
			}
			status, err := client.WaitForCompletion(ctx, receipt.ReferenceID, time.Second)
			if err != nil {
				return err
			}
			printStatus(out, status)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Department, "department", "", "filter by department")
	f.StringVar(&req.Position, "position", "", "filter by position")
	f.StringVar(&req.Email, "email", "", "filter by exact email")
	f.StringVar(&req.Name, "name", "", "filter by first or last name fragment")
	f.Float64Var(&minSalary, "min-salary", 0, "lower salary bound")
	f.Float64Var(&maxSalary, "max-salary", 0, "upper salary bound")
	f.StringVar(&req.Fields, "fields", "", "comma-separated fields to export")
	f.StringVar(&req.SortBy, "sort-by", "", "field to sort by")
	f.StringVar(&req.SortDir, "sort-dir", "", "asc or desc")
	f.IntVar(&req.Page, "page", 0, "one-based page")
	f.IntVar(&req.Size, "size", 0, "page size")
	f.StringVar(&req.UserID, "owner", "", "owner id when no identity is sent")
	f.BoolVar(&wait, "wait", false, "poll until the export finishes")
	return cmd
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <reference-id>",
		Short: "Show the status of an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()

			status, err := client.Status(ctx, args[0])
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newDownloadCommand(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <reference-id>",
		Short: "Download a completed export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()

			artifact, err := client.Download(ctx, args[0])
			var notReady *export.NotReadyError
			if errors.As(err, &notReady) {
				return fmt.Errorf("export is not ready for download: %s", notReady.Status.Message)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(artifact.Data)
				return err
			}
			if output == "" {
				output = artifact.Filename
			}
			if err := os.WriteFile(output, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Export downloaded to %s (%d records, %d bytes)\n", output, artifact.TotalRecords, len(artifact.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: server filename)")
	return cmd
}

func newListCommand(opts *globalOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exports, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()

			exports, err := client.List(ctx, userID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE ID\tSTATUS\tOWNER\tRECORDS\tCREATED")
			for _, e := range exports {
				records := "-"
				if e.TotalRecords != nil {
					records = fmt.Sprint(*e.TotalRecords)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ReferenceID, e.Status, e.OwnerID, records, e.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "for-user", "", "only list exports owned by this user")
	return cmd
}

func newCancelCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reference-id>",
		Short: "Cancel a pending export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context()
			defer cancel()

			result, err := client.Cancel(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.ReferenceID, result.Message)
			return nil
		},
	}
}

func printStatus(out io.Writer, status *export.StatusResponse) {
	fmt.Fprintf(out, "Reference ID: %s\n", status.ReferenceID)
	fmt.Fprintf(out, "Status: %s\n", status.Status)
	fmt.Fprintf(out, "Message: %s\n", status.Message)
	if status.TotalRecords != nil {
		fmt.Fprintf(out, "Records: %d\n", *status.TotalRecords)
	}
	if status.FileSize != nil {
		fmt.Fprintf(out, "File size: %d bytes\n", *status.FileSize)
	}
	for _, w := range status.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

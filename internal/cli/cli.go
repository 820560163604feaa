// Package cli implements embedctl, a command line companion to the embed
// server. It resolves the configured report the same way the server does.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"report_embed/internal/auth"
	"report_embed/internal/config"
	"report_embed/internal/di"
	"report_embed/internal/models"
	"report_embed/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// App holds what the commands need.
type App struct {
	Config  config.Config
	Service service.EmbedService
	Tokens  auth.TokenProvider
	Logger  *logrus.Logger
}

// Builder constructs an App. Commands call it lazily so that --help works
// without configuration.
type Builder func() (*App, error)

// BuildApp wires an App from configuration using the shared fx module.
func BuildApp() (*App, error) {
	app := &App{}
	fxApp := fx.New(
		di.Core,
		fx.NopLogger,
		fx.Populate(&app.Config, &app.Service, &app.Tokens, &app.Logger),
	)
	if err := fxApp.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// New returns the root embedctl command.
func New(build Builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "embedctl",
		Short:         "Inspect the Power BI report embedded by the server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var timeout time.Duration
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout for the command")

	root.AddCommand(newResolveCommand(build, &timeout), newTokenCommand(build, &timeout))
	return root
}

func newResolveCommand(build Builder, timeout *time.Duration) *cobra.Command {
	var (
		showToken   bool
		workspaceID string
		reportID    string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Fetch report metadata and an embed token, then print the embed descriptor",
		Example: `
  # Resolve the configured report
  embedctl resolve

  # Resolve another report in another workspace and include the token
  embedctl resolve --workspace-id <uuid> --report-id <uuid> --show-token
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}
			if workspaceID == "" {
				workspaceID = app.Config.PowerBI.WorkspaceID
			}
			if reportID == "" {
				reportID = app.Config.PowerBI.ReportID
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			descriptor, err := app.Service.GetReport(ctx, workspaceID, reportID)
			if err != nil {
				return err
			}
			return printDescriptor(cmd.OutOrStdout(), descriptor, showToken)
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the embed token instead of a redacted placeholder")
	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace id (default: powerbi.workspace_id)")
	cmd.Flags().StringVar(&reportID, "report-id", "", "Report id (default: powerbi.report_id)")
	return cmd
}

func newTokenCommand(build Builder, timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Check the client credential exchange and print when the access token expires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := build()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			token, err := app.Tokens.AccessToken(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tenant:     %s\n", app.Config.Identity.TenantID)
			fmt.Fprintf(out, "client id:  %s\n", app.Config.Identity.ClientID)
			if token.ExpiresOn.IsZero() {
				fmt.Fprintln(out, "expires:    unknown")
				return nil
			}
			fmt.Fprintf(out, "expires:    %s (in %s)\n",
				token.ExpiresOn.UTC().Format(time.RFC3339),
				time.Until(token.ExpiresOn).Round(time.Second))
			return nil
		},
	}
}

func printDescriptor(w io.Writer, descriptor *models.EmbedDescriptor, showToken bool) error {
	vm := descriptor.ViewModel()
	if !showToken {
		vm.Token = "[REDACTED]"
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(vm)
}

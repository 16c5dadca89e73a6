package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"chatgate/internal/app"
)

type serveOptions struct {
	debug      bool
	logFormat  string
	configPath string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chatgate web server",
		Long: `Starts the HTTP server that hosts the sign-in flow and the chat page.

Configuration:
  Defaults are overridden by the optional yaml file given with --config and
  then by the environment (CLIENT_ID, CLIENT_SECRET, TENANT_ID, FLASK_SECRET_KEY,
  AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT, AZURE_OPENAI_KEY).
  Locally a .env file in the working directory is read as well.

  When WEBSITE_HOSTNAME is set the process assumes it runs on Azure App Service:
  identity credentials are read from the Key Vault named by KEY_VAULT_NAME and
  the model API is called with the managed identity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides the config file)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a yaml config file")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := app.NewConfig(opts.debug, opts.logFormat, opts.configPath)
	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}

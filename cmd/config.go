package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chatgate/internal/app"
	"chatgate/internal/config"
)

// resolvedConfig is the printable view of the configuration. Secrets print as [REDACTED].
type resolvedConfig struct {
	config.Config `yaml:",inline"`
	Platform      config.Platform    `yaml:"platform"`
	Credentials   config.Credentials `yaml:"credentials"`
	Valid         bool               `yaml:"valid"`
	Problems      []string           `yaml:"problems,omitempty"`
}

func newConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			appCfg := app.NewConfig(false, "", configPath)
			appCfg.LogOutput = cmd.ErrOrStderr()
			return printConfig(ctx, cmd.OutOrStdout(), appCfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a yaml config file")
	return cmd
}

func printConfig(ctx context.Context, out io.Writer, appCfg *app.Config) error {
	cfg, _, err := app.LoadSettings(ctx, appCfg)
	if err != nil {
		return err
	}

	view := resolvedConfig{Config: *cfg, Platform: cfg.Platform, Credentials: cfg.Credentials, Valid: true}
	if view.Session.Storage.Valkey.Password != "" {
		view.Session.Storage.Valkey.Password = config.NewRedacted(view.Session.Storage.Valkey.Password).String()
	}
	if verr := cfg.Validate(); verr != nil {
		view.Valid = false
		if errs, ok := verr.(config.ValidationErrors); ok {
			for _, e := range errs {
				view.Problems = append(view.Problems, e.Error())
			}
		} else {
			view.Problems = []string{verr.Error()}
		}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

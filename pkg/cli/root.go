// Package cli implements the catsum command-line client for the summary API.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catalog-summary/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host       string
		token      string
		output     string
		displayCtx string
		profile    string
	)

	client := NewClient(host, token)

	rootCmd := &cobra.Command{
		Use:           "catsum",
		Short:         "Catalog summary CLI",
		Long:          "Command-line interface for the catalog summary API: table and dashboard summaries and the failure inbox.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Config file is optional
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			resolve := func(flag string, dst *string, env, fromProfile string) {
				if cmd.Flags().Changed(flag) {
					return
				}
				if v := os.Getenv(env); v != "" {
					*dst = v
				} else if fromProfile != "" {
					*dst = fromProfile
				}
			}
			resolve("host", &host, "CATSUM_HOST", p.Host)
			resolve("token", &token, "CATSUM_TOKEN", p.Token)
			resolve("output", &output, "CATSUM_OUTPUT", p.Output)
			resolve("context", &displayCtx, "CATSUM_CONTEXT", p.Context)

			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if _, err := domain.ParseDisplayContext(displayCtx); err != nil {
				return err
			}
			baseURL, err := normalizeHost(host)
			if err != nil {
				return err
			}
			client.BaseURL = baseURL
			client.Token = token
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&displayCtx, "context", "c", "explore", "Display context (explore, drawer)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newSummaryCmd(client, "table", "tables"))
	rootCmd.AddCommand(newSummaryCmd(client, "dashboard", "dashboards"))
	rootCmd.AddCommand(newNotificationsCmd(client))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/repair"
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Compile the contracts and let the AI repair the build until it passes.",
	Long: `The 'fix' subcommand runs forge build and, while it fails, sends the compiler
errors to the AI, previews the proposed fix, applies it and compiles again. It stops
when the build passes or the retry budget is spent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		if _, err := rootDependencies.Credentials.Load(); err != nil {
			return err
		}

		provider, err := rootDependencies.newProvider(rootDependencies.Config.AIProviderConfig)
		if err != nil {
			return err
		}

		opts := repair.Options{
			MaxRetries: rootDependencies.Config.Repair.MaxRetries,
			Auto:       rootDependencies.Config.Repair.Auto,
		}
		if cmd.Flags().Changed("retries") {
			opts.MaxRetries, _ = cmd.Flags().GetInt("retries")
		}
		if cmd.Flags().Changed("auto") {
			opts.Auto, _ = cmd.Flags().GetBool("auto")
		}

		result, err := rootDependencies.newRepairLoop(provider).Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		rootDependencies.TokenManagement.DisplayTokens(cmd.OutOrStdout(),
			rootDependencies.Config.AIProviderConfig.Provider,
			rootDependencies.Config.AIProviderConfig.Model,
		)

		if !result.Success && !result.Aborted {
			fmt.Println(lipgloss.ErrorBoxStyle.Render(result.LastError))
			return fmt.Errorf("build still failing after %d attempt(s)", result.Attempts)
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().Bool("auto", false, "Apply fixes without asking for confirmation")
	fixCmd.Flags().Int("retries", repair.DefaultMaxRetries, "Maximum number of repair attempts")

	rootCmd.AddCommand(fixCmd)
}

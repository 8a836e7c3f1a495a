package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/config"
	"github.com/meysamhadeli/dappai/providers"
	"github.com/meysamhadeli/dappai/providers/contracts"
	"github.com/meysamhadeli/dappai/session"
	"github.com/meysamhadeli/dappai/utils"
)

// chatCmd: dappai chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Edit the project with the AI assistant in an interactive session.",
	Long: `The 'chat' subcommand starts a session in which every request is sent to the AI
together with the current project context. Proposed edits are previewed, applied,
compiled and, when the build breaks, repaired, refined or reverted. Every turn is
snapshotted so the project can be restored with /revert.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		return handleChatCommand(cmd.Context(), rootDependencies, false)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func handleChatCommand(ctx context.Context, rootDependencies *RootDependencies, deploy bool) error {
	controller := session.NewController(session.Config{
		Layout:   rootDependencies.Layout,
		Store:    rootDependencies.Store,
		Pipeline: rootDependencies.Pipeline,
		NewRepairer: func(provider contracts.IChatAIProvider) session.Repairer {
			return rootDependencies.newRepairLoop(provider)
		},
		Credentials: rootDependencies.Credentials,
		Analyzer:    rootDependencies.Analyzer,
		Tokens:      rootDependencies.TokenManagement,
		Prompter:    rootDependencies.Prompter,

		AIConfig:    rootDependencies.Config.AIProviderConfig,
		NewProvider: rootDependencies.newProvider,
		SaveAIConfig: func(aiConfig *providers.AIProviderConfig) error {
			return config.SaveUserConfig(config.UserConfigPath(), aiConfig)
		},

		Deploy:     deploy,
		MaxRetries: rootDependencies.Config.Repair.MaxRetries,
		AutoRepair: rootDependencies.Config.Repair.Auto,

		Theme:  rootDependencies.Config.Theme,
		Out:    os.Stdout,
		Spin:   utils.TerminalSpinner,
		Logger: rootDependencies.Logger,
	})

	return controller.Run(ctx)
}

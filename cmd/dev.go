package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meysamhadeli/dappai/chain"
	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/utils"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Start a local chain and an AI session that deploys every successful build.",
	Long: `The 'dev' subcommand starts anvil on the configured RPC URL (or reuses a node
already listening there) and then runs the chat session with deployment enabled.
The chain is stopped when the session ends or on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		return handleDevCommand(cmd.Context(), rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(devCmd)
}

func handleDevCommand(ctx context.Context, rootDependencies *RootDependencies) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := rootDependencies.Layout.Settings
	node := chain.NewNode(rootDependencies.Runner, settings.RPCURL, settings.ChainID, rootDependencies.Logger)

	stop := utils.TerminalSpinner("Starting local chain...")
	err := node.Start(ctx)
	stop()
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("⛓️ Local chain ready at %s", node.RPCURL())))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := node.Wait(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("local chain stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Ending the session tears the chain down.
		defer cancel()
		return handleChatCommand(gctx, rootDependencies, true)
	})

	return g.Wait()
}

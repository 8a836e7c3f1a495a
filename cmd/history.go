package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/pipeline"
	"github.com/meysamhadeli/dappai/snapshot"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent project snapshots.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		count, _ := cmd.Flags().GetInt("count")
		snapshots := rootDependencies.Store.ListSnapshots(cmd.Context(), count)
		if len(snapshots) == 0 {
			fmt.Println(lipgloss.Yellow.Render("No snapshots yet"))
			return nil
		}

		for _, snap := range snapshots {
			fmt.Printf("%s  %s  %s\n", lipgloss.Cyan.Render(snap.Hash), snap.Message, lipgloss.Gray.Render(snap.Timestamp))
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert [hash]",
	Short: "Restore the project to a snapshot and rebuild it.",
	Long: `The 'revert' subcommand restores every file to its content at the given snapshot
and records the restore as a new snapshot, so history is never lost. Without a hash
it offers a pick from the recent snapshots.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		ctx := cmd.Context()
		var hash string
		if len(args) == 1 {
			hash = args[0]
		} else {
			snapshots := rootDependencies.Store.ListSnapshots(ctx, snapshot.DefaultListCount)
			if len(snapshots) == 0 {
				fmt.Println(lipgloss.Yellow.Render("No snapshots to revert to"))
				return nil
			}
			options := make([]string, len(snapshots))
			for i, snap := range snapshots {
				options[i] = fmt.Sprintf("%s  %s  %s", snap.Hash, snap.Message, snap.Timestamp)
			}
			choice, err := rootDependencies.Prompter.Select(ctx, "Revert to which snapshot?", options)
			if err != nil {
				return err
			}
			hash = snapshots[choice].Hash
		}

		snap, err := rootDependencies.Store.RevertToSnapshot(ctx, hash)
		if err != nil {
			return err
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("⏪ %s (%s)", snap.Message, snap.Hash)))

		rootDependencies.Pipeline.Rebuild(ctx, pipeline.Options{})
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("count", "n", snapshot.DefaultListCount, "Number of snapshots to show")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(revertCmd)
}

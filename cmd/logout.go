package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored marketplace credential",
	Long: `The 'logout' command deletes the credential saved by 'dappai login'.
Sessions cannot start again until you log in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		if _, err := rootDependencies.Credentials.Load(); err != nil {
			fmt.Println(lipgloss.Yellow.Render("Not logged in."))
			return nil
		}

		// Confirm unless forced
		if !force {
			confirmed, err := rootDependencies.Prompter.Confirm(cmd.Context(), "Remove the stored credential?", false)
			if err != nil || !confirmed {
				fmt.Println(lipgloss.Yellow.Render("Logout cancelled."))
				return nil
			}
		}

		if err := rootDependencies.Credentials.Clear(); err != nil {
			return fmt.Errorf("error removing credential: %w", err)
		}
		fmt.Println(lipgloss.Green.Render("✓ Credential removed"))
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolP("force", "f", false, "Remove the credential without confirmation")

	rootCmd.AddCommand(logoutCmd)
}

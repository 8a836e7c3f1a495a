package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the marketplace credential used by dappai.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token, err = rootDependencies.Prompter.Ask(cmd.Context(), "Access token: ")
			if err != nil {
				return err
			}
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return fmt.Errorf("no token given")
		}

		if _, err := rootDependencies.Credentials.Save(token, time.Now()); err != nil {
			return err
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✅ Credential saved to %s", rootDependencies.Credentials.Path())))
		return nil
	},
}

func init() {
	loginCmd.Flags().String("token", "", "Access token; prompted for when omitted")

	rootCmd.AddCommand(loginCmd)
}

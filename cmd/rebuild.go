package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/dappai/constants/lipgloss"
	"github.com/meysamhadeli/dappai/pipeline"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Compile the contracts, optionally deploy them, and regenerate frontend bindings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rootDependencies.Logger.Sync() }()

		deploy, _ := cmd.Flags().GetBool("deploy")
		result := rootDependencies.Pipeline.Rebuild(cmd.Context(), pipeline.Options{Deploy: deploy})

		if !result.BuildSuccess {
			fmt.Println(lipgloss.ErrorBoxStyle.Render(result.BuildErrors))
			return fmt.Errorf("compilation failed, run `dappai fix` to repair it")
		}
		if len(result.MissingParams) > 0 {
			fmt.Println(lipgloss.Yellow.Render("Set these environment variables to deploy: " + strings.Join(result.MissingParams, ", ")))
		}

		fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("build %s  deploy %s  codegen %s",
			status(result.BuildSuccess), deployStatus(deploy, result), status(result.CodegenSuccess))))
		return nil
	},
}

func init() {
	rebuildCmd.Flags().Bool("deploy", false, "Deploy the contracts to the local chain after compiling")

	rootCmd.AddCommand(rebuildCmd)
}

func status(ok bool) string {
	if ok {
		return lipgloss.Green.Render("✔")
	}
	return lipgloss.Red.Render("✘")
}

func deployStatus(requested bool, result pipeline.RebuildResult) string {
	if !requested || result.DeploySkipped {
		return lipgloss.Gray.Render("-")
	}
	return status(result.DeploySuccess)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the whalecopy CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("whalecopy version %s\n", version)
		fmt.Println("A risk-free prediction-market whale copy-trading simulator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

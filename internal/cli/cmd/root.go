package cmd

import (
	"fmt"
	"os"

	"esparcraft/pkg/sdk"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	Client  *sdk.Client
	BaseURL string
)

var RootCmd = &cobra.Command{
	Use:   "esparcraft",
	Short: "CLI for the Esparcraft server panel",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Client = sdk.NewClient(BaseURL)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if !interactive() {
			handleList()
			return
		}
		RunDashboard()
	},
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func defaultURL() string {
	if port := os.Getenv("ESPARCRAFT_PORT"); port != "" {
		return "http://localhost:" + port
	}
	return "http://localhost:23010"
}

func Execute() {
	RootCmd.PersistentFlags().StringVar(&BaseURL, "url", defaultURL(), "URL of the Esparcraft daemon")

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

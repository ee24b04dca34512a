package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
	"github.com/spf13/cobra"
)

const daemonName = "esparcraftd"

// daemonApp describes the login entry that launches the daemon. The daemon
// binary is expected next to the CLI.
func daemonApp() (*autostart.App, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exe := filepath.Join(filepath.Dir(self), daemonName)
	if filepath.Ext(self) == ".exe" {
		exe += ".exe"
	}
	return &autostart.App{
		Name:        daemonName,
		DisplayName: "Esparcraft daemon",
		Exec:        []string{exe},
	}, nil
}

func autostartStatus(cmd *cobra.Command, args []string) {
	app, err := daemonApp()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if app.IsEnabled() {
		fmt.Println("Autostart: enabled")
	} else {
		fmt.Println("Autostart: disabled")
	}
}

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Launch the daemon at login",
	Run:   autostartStatus,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon starts at login",
	Run:   autostartStatus,
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register the daemon to start at login",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := daemonApp()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if _, err := os.Stat(app.Exec[0]); err != nil {
			log.Fatalf("Daemon binary not found at %s", app.Exec[0])
		}
		if err := app.Enable(); err != nil {
			log.Fatalf("Error enabling autostart: %v", err)
		}
		fmt.Println("Autostart enabled.")
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login entry",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := daemonApp()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if !app.IsEnabled() {
			fmt.Println("Autostart already disabled.")
			return
		}
		if err := app.Disable(); err != nil {
			log.Fatalf("Error disabling autostart: %v", err)
		}
		fmt.Println("Autostart disabled.")
	},
}

func init() {
	autostartCmd.AddCommand(autostartStatusCmd, autostartEnableCmd, autostartDisableCmd)
	RootCmd.AddCommand(autostartCmd)
	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("esparcraft %s\n", Version)
		},
	})
}

// Version is set at build time with -ldflags.
var Version = "dev"

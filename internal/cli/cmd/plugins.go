package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage plugins",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List plugins",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plugins, err := Client.ListPlugins(args[0])
		if err != nil {
			log.Fatalf("Error listing plugins: %v", err)
		}
		for _, p := range plugins {
			status := "enabled"
			if !p.Enabled {
				status = "disabled"
			}
			name := p.Name
			if name == "" {
				name = p.File
			}
			fmt.Printf("- %s %s [%s] (%s, %d KB)\n", name, p.Version, status, p.File, p.Size/1024)
		}
	},
}

var pluginsInstallCmd = &cobra.Command{
	Use:   "install [id] [jar]",
	Short: "Upload a plugin jar",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[1])
		if err != nil {
			log.Fatalf("Error opening %s: %v", args[1], err)
		}
		defer f.Close()
		file := filepath.Base(args[1])
		if err := Client.InstallPlugin(args[0], file, f); err != nil {
			log.Fatalf("Error installing plugin: %v", err)
		}
		fmt.Printf("Installed %s. Restart the server to load it.\n", file)
	},
}

var pluginsRemoveCmd = &cobra.Command{
	Use:   "remove [id] [file]",
	Short: "Delete a plugin jar",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.RemovePlugin(args[0], args[1]); err != nil {
			log.Fatalf("Error removing plugin: %v", err)
		}
		fmt.Println("Plugin removed.")
	},
}

var pluginsToggleCmd = &cobra.Command{
	Use:   "toggle [id] [file]",
	Short: "Enable or disable a plugin",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := Client.TogglePlugin(args[0], args[1])
		if err != nil {
			log.Fatalf("Error toggling plugin: %v", err)
		}
		fmt.Printf("Plugin is now %s\n", file)
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd, pluginsInstallCmd, pluginsRemoveCmd, pluginsToggleCmd)
	RootCmd.AddCommand(pluginsCmd)
}

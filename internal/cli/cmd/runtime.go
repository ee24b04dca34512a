package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Java runtime used to launch servers",
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := Client.GetRuntime()
		if err != nil {
			log.Fatalf("Error getting runtime: %v", err)
		}
		if !rt.Available {
			fmt.Println("Java: not found")
			return
		}
		fmt.Printf("Java:    %s\n", rt.JavaPath)
		fmt.Printf("Version: %s (major %d)\n", rt.Version, rt.Major)
		fmt.Printf("Source:  %s\n", rt.Source)
	},
}

var runtimeJavaCmd = &cobra.Command{
	Use:   "java [path]",
	Short: "Use a specific java executable",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := Client.SetJavaPath(args[0])
		if err != nil {
			log.Fatalf("Error setting java: %v", err)
		}
		fmt.Printf("Using %s (Java %s). Applies to the next start.\n", rt.JavaPath, rt.Version)
	},
}

func init() {
	runtimeCmd.AddCommand(runtimeJavaCmd)
	RootCmd.AddCommand(runtimeCmd)
}

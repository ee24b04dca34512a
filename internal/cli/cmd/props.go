package cmd

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props",
	Short: "Read and edit server.properties",
}

var propsGetCmd = &cobra.Command{
	Use:   "get [id] [key]",
	Short: "Show properties, or a single key",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		props, err := Client.GetProperties(args[0])
		if err != nil {
			log.Fatalf("Error reading properties: %v", err)
		}
		all := map[string]string{}
		for k, v := range props.Extra {
			all[k] = v
		}
		for k, v := range props.Typed {
			all[k] = fmt.Sprint(v)
		}
		if len(args) == 2 {
			v, ok := all[args[1]]
			if !ok {
				log.Fatalf("Property %q not set", args[1])
			}
			fmt.Println(v)
			return
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s=%s\n", k, all[k])
		}
	},
}

var propsSetCmd = &cobra.Command{
	Use:   "set [id] key=value...",
	Short: "Change properties",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		props, err := Client.GetProperties(args[0])
		if err != nil {
			log.Fatalf("Error reading properties: %v", err)
		}
		extra := map[string]string{}
		typedChanged := false
		for _, pair := range args[1:] {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				log.Fatalf("Expected key=value, got %q", pair)
			}
			current, typed := props.Typed[key]
			if !typed {
				extra[key] = value
				continue
			}
			v, err := typedValue(current, value)
			if err != nil {
				log.Fatalf("Invalid value for %s: %v", key, err)
			}
			props.Typed[key] = v
			typedChanged = true
		}

		var typedBody map[string]interface{}
		if typedChanged {
			typedBody = props.Typed
		}
		if len(extra) == 0 {
			extra = nil
		}
		changed, err := Client.SaveProperties(args[0], typedBody, extra)
		if err != nil {
			log.Fatalf("Error saving properties: %v", err)
		}
		if len(changed) == 0 {
			fmt.Println("Nothing changed.")
			return
		}
		fmt.Printf("Changed: %s\n", strings.Join(changed, ", "))
	},
}

func typedValue(current interface{}, value string) (interface{}, error) {
	switch current.(type) {
	case bool:
		return strconv.ParseBool(value)
	case float64:
		return strconv.Atoi(value)
	default:
		return value, nil
	}
}

func init() {
	propsCmd.AddCommand(propsGetCmd, propsSetCmd)
	RootCmd.AddCommand(propsCmd)
}

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"esparcraft/internal/cli/ui"
	"esparcraft/pkg/sdk"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage servers",
}

var createCfg sdk.ServerConfig

var serverCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a server",
	Run: func(cmd *cobra.Command, args []string) {
		handleCreate(createCfg)
	},
}

var (
	editName, editJar, editPath, editMarker string
	editRAMMin, editRAMMax                  int
	editAutoRestart                         bool
)

var serverEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change a server's settings",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields := map[string]interface{}{}
		flags := cmd.Flags()
		if flags.Changed("name") {
			fields["name"] = editName
		}
		if flags.Changed("jar") {
			fields["jar"] = editJar
		}
		if flags.Changed("path") {
			fields["path"] = editPath
		}
		if flags.Changed("ram-min") {
			fields["ram_min"] = editRAMMin
		}
		if flags.Changed("ram-max") {
			fields["ram_max"] = editRAMMax
		}
		if flags.Changed("auto-restart") {
			fields["auto_restart"] = editAutoRestart
		}
		if flags.Changed("ready-marker") {
			fields["ready_marker"] = editMarker
		}
		if len(fields) == 0 {
			log.Fatal("Nothing to change: pass at least one flag")
		}
		cfg, err := Client.UpdateServer(args[0], fields)
		if err != nil {
			log.Fatalf("Error updating server: %v", err)
		}
		fmt.Printf("Server %s updated. Changes apply on next start.\n", cfg.Name)
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all servers",
	Run: func(cmd *cobra.Command, args []string) {
		handleList()
	},
}

var serverShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a server's status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleShow(args[0])
	},
}

func simpleCommand(use, short, done string, fn func(string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := fn(args[0]); err != nil {
				log.Fatalf("Error: %v", err)
			}
			fmt.Println(done)
		},
	}
}

var serverSendCmd = &cobra.Command{
	Use:   "send [id] [command...]",
	Short: "Send a console command",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := Client.SendCommand(args[0], strings.Join(args[1:], " ")); err != nil {
			log.Fatalf("Error sending command: %v", err)
		}
	},
}

var (
	logsSince    int64
	logsCategory string
	logsTail     int
	logsFollow   bool
)

var serverLogsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "View server logs and console",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if interactive() && !cmd.Flags().Changed("tail") && !cmd.Flags().Changed("category") && !logsFollow {
			ui.RunLogs(Client, args[0])
			return
		}
		handleLogs(args[0])
	},
}

var serverClearCmd = simpleCommand("clear", "Clear the buffered console", "Console cleared.", func(id string) error {
	return Client.ClearLogs(id)
})

var serverOpenCmd = &cobra.Command{
	Use:   "open [id]",
	Short: "Open the server folder in the file manager",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		srv, err := Client.GetServer(args[0])
		if err != nil {
			log.Fatalf("Error getting server: %v", err)
		}
		if err := browser.OpenFile(srv.Config.Path); err != nil {
			log.Fatalf("Error opening %s: %v", srv.Config.Path, err)
		}
	},
}

func init() {
	f := serverCreateCmd.Flags()
	f.StringVar(&createCfg.Name, "name", "", "Server name")
	f.StringVar(&createCfg.Jar, "jar", "server.jar", "Jar file inside the server folder")
	f.StringVar(&createCfg.Path, "path", "", "Server folder")
	f.IntVar(&createCfg.RAMMin, "ram-min", 1, "Minimum heap in GB")
	f.IntVar(&createCfg.RAMMax, "ram-max", 2, "Maximum heap in GB")
	f.BoolVar(&createCfg.AutoRestart, "auto-restart", false, "Restart after a crash")
	f.StringVar(&createCfg.ReadyMarker, "ready-marker", "", "Console text that marks the server as ready")
	serverCreateCmd.MarkFlagRequired("name")
	serverCreateCmd.MarkFlagRequired("path")

	e := serverEditCmd.Flags()
	e.StringVar(&editName, "name", "", "Server name")
	e.StringVar(&editJar, "jar", "", "Jar file")
	e.StringVar(&editPath, "path", "", "Server folder")
	e.IntVar(&editRAMMin, "ram-min", 0, "Minimum heap in GB")
	e.IntVar(&editRAMMax, "ram-max", 0, "Maximum heap in GB")
	e.BoolVar(&editAutoRestart, "auto-restart", false, "Restart after a crash")
	e.StringVar(&editMarker, "ready-marker", "", "Console text that marks the server as ready")

	l := serverLogsCmd.Flags()
	l.Int64Var(&logsSince, "since", 0, "First log index to print")
	l.StringVar(&logsCategory, "category", "", "Only this category (INFO, WARN, ERROR, SUCCESS, SYSTEM, COMMAND)")
	l.IntVar(&logsTail, "tail", 0, "Only the last N lines")
	l.BoolVarP(&logsFollow, "follow", "f", false, "Keep printing new lines")

	serverCmd.AddCommand(
		serverCreateCmd, serverEditCmd, serverListCmd, serverShowCmd,
		simpleCommand("start", "Start a server", "Start command sent.", func(id string) error { return Client.StartServer(id) }),
		simpleCommand("stop", "Stop a server", "Stop command sent.", func(id string) error { return Client.StopServer(id) }),
		simpleCommand("kill", "Kill a server without saving", "Server killed.", func(id string) error { return Client.KillServer(id) }),
		simpleCommand("delete", "Forget a server (files stay on disk)", "Server deleted successfully.", func(id string) error { return Client.DeleteServer(id) }),
		serverSendCmd, serverLogsCmd, serverClearCmd, serverOpenCmd,
	)
	RootCmd.AddCommand(serverCmd)
}

func handleCreate(req sdk.ServerConfig) {
	cfg, err := Client.CreateServer(req)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}
	fmt.Printf("Server created: %s (%s)\n", cfg.Name, cfg.ID)
}

func handleList() {
	servers, err := Client.ListServers()
	if err != nil {
		log.Fatalf("Error listing servers: %v", err)
	}

	fmt.Println("Servers:")
	for _, s := range servers {
		fmt.Printf("- %s (%s) [%s] players: %d\n", s.Config.Name, s.Config.ID, s.State, len(s.Online))
	}
}

func handleShow(id string) {
	s, err := Client.GetServer(id)
	if err != nil {
		log.Fatalf("Error getting server: %v", err)
	}
	fmt.Printf("Name:    %s\n", s.Config.Name)
	fmt.Printf("ID:      %s\n", s.Config.ID)
	fmt.Printf("State:   %s\n", s.State)
	fmt.Printf("Path:    %s\n", s.Config.Path)
	fmt.Printf("Jar:     %s\n", s.Config.Jar)
	fmt.Printf("RAM:     %d-%d GB\n", s.Config.RAMMin, s.Config.RAMMax)
	if s.Running {
		fmt.Printf("PID:     %d\n", s.PID)
	}
	if s.Perf.CPU != nil && s.Perf.RAMMB != nil {
		fmt.Printf("CPU:     %.1f%%\n", *s.Perf.CPU)
		fmt.Printf("Memory:  %.0f MB\n", *s.Perf.RAMMB)
	}
	fmt.Printf("Online:  %s\n", strings.Join(s.Online, ", "))
}

func printLine(l sdk.LogLine) {
	if interactive() {
		fmt.Println(ui.RenderLine(l.Category, l.Text))
		return
	}
	fmt.Println(l.Text)
}

func handleLogs(id string) {
	logs, err := Client.GetLogs(id, logsSince, logsCategory, logsTail)
	if err != nil {
		log.Fatalf("Error getting logs: %v", err)
	}
	for _, l := range logs.Lines {
		printLine(l)
	}
	if !logsFollow {
		return
	}

	console, err := Client.OpenConsole(id)
	if err != nil {
		log.Fatalf("Error connecting to console: %v", err)
	}
	defer console.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		console.Close()
	}()

	for {
		msg, err := console.Next()
		if err != nil {
			return
		}
		if msg.Type != "event" || msg.Event == nil || msg.Event.Kind != "log" || msg.Event.Log == nil {
			continue
		}
		l := *msg.Event.Log
		if l.Index < logs.LogEnd {
			continue
		}
		if logsCategory != "" && !strings.EqualFold(l.Category, logsCategory) {
			continue
		}
		printLine(l)
	}
}

package cmd

import (
	"esparcraft/internal/cli/ui"
)

func RunDashboard() {
	for {
		serverID := ui.RunServerList(Client)
		if serverID == "" {
			return
		}
		if back := ui.RunLogs(Client, serverID); !back {
			return
		}
	}
}

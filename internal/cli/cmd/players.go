package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Players, operators and bans of a server",
}

var playersListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "Online and known players",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		players, err := Client.GetPlayers(args[0])
		if err != nil {
			log.Fatalf("Error getting players: %v", err)
		}
		fmt.Printf("Online (%d):\n", len(players.Online))
		for _, p := range players.Online {
			fmt.Printf("  %s %s\n", p.Name, p.UUID)
		}
		fmt.Printf("Known offline (%d):\n", len(players.KnownOffline))
		for _, p := range players.KnownOffline {
			fmt.Printf("  %s %s\n", p.Name, p.UUID)
		}
		if len(players.Offline) > 0 {
			fmt.Printf("Left this session: %s\n", strings.Join(players.Offline, ", "))
		}
	},
}

var playersOpsCmd = &cobra.Command{
	Use:   "ops [id]",
	Short: "List operators",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ops, err := Client.GetOps(args[0])
		if err != nil {
			log.Fatalf("Error getting operators: %v", err)
		}
		for _, op := range ops {
			fmt.Printf("- %s (level %d)\n", op.Name, op.Level)
		}
	},
}

var playersBansCmd = &cobra.Command{
	Use:   "bans [id]",
	Short: "List banned players",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bans, err := Client.GetBans(args[0])
		if err != nil {
			log.Fatalf("Error getting bans: %v", err)
		}
		for _, b := range bans {
			fmt.Printf("- %s: %s (by %s, expires %s)\n", b.Name, b.Reason, b.Source, b.Expires)
		}
	},
}

var actionReason string

func playerActionCommand(action, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   action + " [id] [player]",
		Short: short,
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := Client.PlayerAction(args[0], args[1], action, actionReason); err != nil {
				log.Fatalf("Error: %v", err)
			}
			fmt.Printf("%s sent for %s.\n", action, args[1])
		},
	}
	if action == "kick" || action == "ban" {
		c.Flags().StringVar(&actionReason, "reason", "", "Reason shown to the player")
	}
	return c
}

func init() {
	playersCmd.AddCommand(
		playersListCmd, playersOpsCmd, playersBansCmd,
		playerActionCommand("kick", "Kick a player"),
		playerActionCommand("ban", "Ban a player"),
		playerActionCommand("pardon", "Lift a ban"),
		playerActionCommand("op", "Grant operator"),
		playerActionCommand("deop", "Revoke operator"),
	)
	RootCmd.AddCommand(playersCmd)
}

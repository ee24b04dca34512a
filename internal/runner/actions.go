package runner

import (
	"errors"
	"fmt"
	"strings"

	"esparcraft/internal/players"
)

type PlayerAction string

const (
	ActionKick   PlayerAction = "kick"
	ActionBan    PlayerAction = "ban"
	ActionPardon PlayerAction = "pardon"
	ActionOp     PlayerAction = "op"
	ActionDeop   PlayerAction = "deop"
)

var ErrInvalidAction = errors.New("invalid player action")

// PlayerCommand builds the console command for a moderation action. Only kick
// and ban carry a reason.
func PlayerCommand(action PlayerAction, name, reason string) (string, error) {
	if !players.ValidName(name) {
		return "", fmt.Errorf("%w: bad player name %q", ErrInvalidAction, name)
	}
	reason = strings.Join(strings.Fields(reason), " ")
	switch action {
	case ActionKick, ActionBan:
		if reason != "" {
			return fmt.Sprintf("%s %s %s", action, name, reason), nil
		}
		return fmt.Sprintf("%s %s", action, name), nil
	case ActionPardon, ActionOp, ActionDeop:
		return fmt.Sprintf("%s %s", action, name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

func (s *Supervisor) PlayerAction(id string, action PlayerAction, name, reason string) error {
	command, err := PlayerCommand(action, name, reason)
	if err != nil {
		return err
	}
	return s.SendCommand(id, command)
}

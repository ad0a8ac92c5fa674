package selection

import (
	"bricklink/taxonomy/internal/domain"

	log "github.com/sirupsen/logrus"
)

type CommandType string

const (
	CommandInitialStateChange CommandType = "INITIAL_STATE_CHANGE"
	CommandCheckNode          CommandType = "CHECK_NODE"
	CommandUncheckNode        CommandType = "UNCHECK_NODE"
	CommandHighlightNode      CommandType = "HIGHLIGHT_NODE"
)

type Command struct {
	Type        CommandType            `json:"type"`
	ID          string                 `json:"id,omitempty"`
	CategoryMap domain.CategoryTreeMap `json:"categoryMap,omitempty"`
}

func InitialStateChange(tree domain.CategoryTreeMap) Command {
	return Command{Type: CommandInitialStateChange, CategoryMap: tree}
}

func CheckNode(id string) Command {
	return Command{Type: CommandCheckNode, ID: id}
}

func UncheckNode(id string) Command {
	return Command{Type: CommandUncheckNode, ID: id}
}

func HighlightNode(id string) Command {
	return Command{Type: CommandHighlightNode, ID: id}
}

// Apply runs one command against s and returns the resulting state. It never
// fails: commands that cannot take effect return s unchanged.
func Apply(s *State, cmd Command) *State {
	switch cmd.Type {
	case CommandInitialStateChange:
		return s.ReplaceTree(cmd.CategoryMap)
	case CommandCheckNode:
		return s.Check(cmd.ID)
	case CommandUncheckNode:
		return s.Uncheck(cmd.ID)
	case CommandHighlightNode:
		return s.Highlight(cmd.ID)
	default:
		log.Warnf("Ignoring unknown selection command %q", cmd.Type)
		return s
	}
}

package grid

import (
	"fmt"
	"strings"
)

// ActionType names a grid operation.
type ActionType string

// Supported actions.
const (
	ActionSelectLayout    ActionType = "select_layout"
	ActionPlace           ActionType = "place"
	ActionAdd             ActionType = "add"
	ActionSwap            ActionType = "swap"
	ActionRemove          ActionType = "remove"
	ActionReset           ActionType = "reset"
	ActionToggleLivescore ActionType = "toggle_livescore"
)

// ActionTypes lists every supported action type.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionSelectLayout, ActionPlace, ActionAdd, ActionSwap,
		ActionRemove, ActionReset, ActionToggleLivescore,
	}
}

// Action is a serializable request to change a grid. Which fields matter
// depends on Type; the others are ignored.
type Action struct {
	Type      ActionType `json:"type"`
	LayoutID  int        `json:"layout_id,omitempty"`
	WebcastID string     `json:"webcast_id,omitempty"`
	Position  int        `json:"position,omitempty"`
	Other     int        `json:"other,omitempty"`
}

// Validate rejects actions the reducer could never apply. Range checks are
// left to the reducer because they depend on the state at apply time.
func (a Action) Validate() error {
	switch a.Type {
	case ActionSelectLayout, ActionSwap, ActionReset, ActionToggleLivescore:
		return nil
	case ActionPlace, ActionAdd, ActionRemove:
		if strings.TrimSpace(a.WebcastID) == "" {
			return fmt.Errorf("%w: %s", ErrMissingWebcast, a.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}

// Reduce applies a to s. Unknown action types return s unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSelectLayout:
		return s.SelectLayout(a.LayoutID)
	case ActionPlace:
		return s.PlaceAt(a.WebcastID, a.Position)
	case ActionAdd:
		return s.Add(a.WebcastID)
	case ActionSwap:
		return s.Swap(a.Position, a.Other)
	case ActionRemove:
		return s.Remove(a.WebcastID)
	case ActionReset:
		return s.Reset()
	case ActionToggleLivescore:
		return s.ToggleLivescore(a.Position)
	default:
		return s
	}
}

// ReduceAll folds actions over s in order.
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

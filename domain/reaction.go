package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Reaction is the vote a user holds on a freet or comment.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionUp
	ReactionDown
)

// String returns the wire name of the reaction.
func (r Reaction) String() string {
	switch r {
	case ReactionUp:
		return "up"
	case ReactionDown:
		return "down"
	default:
		return "none"
	}
}

// TargetKind identifies what a reaction is attached to.
type TargetKind string

const (
	TargetFreet   TargetKind = "freet"
	TargetComment TargetKind = "comment"
)

// ReactionRepository defines the interface for up/down votes.
type ReactionRepository interface {
	// React applies action (ReactionUp or ReactionDown) from the user to the target,
	// following NextReaction, and updates the target's counters atomically.
	// It returns the user's reaction after the transition.
	React(kind TargetKind, targetID, userID uuid.UUID, action Reaction) (Reaction, error)

	// GetReaction returns the user's current reaction on the target.
	GetReaction(kind TargetKind, targetID, userID uuid.UUID) (Reaction, error)

	// GetReactions returns the user's reactions on the given targets. Targets
	// the user has not reacted to are left out of the map.
	GetReactions(kind TargetKind, targetIDs []uuid.UUID, userID uuid.UUID) (map[uuid.UUID]Reaction, error)
}

// NextReaction computes the transition of a user's reaction when they press
// the button for action, along with the compensating counter deltas.
//
// Pressing the button matching the current reaction clears it. Pressing the
// opposite button moves the vote across, touching both counters.
func NextReaction(current, action Reaction) (next Reaction, upDelta, downDelta int, err error) {
	if action != ReactionUp && action != ReactionDown {
		return current, 0, 0, fmt.Errorf("invalid reaction action %q", action)
	}

	switch current {
	case ReactionUp:
		upDelta--
	case ReactionDown:
		downDelta--
	case ReactionNone:
	default:
		return current, 0, 0, fmt.Errorf("invalid current reaction %d", int(current))
	}

	if current == action {
		return ReactionNone, upDelta, downDelta, nil
	}

	if action == ReactionUp {
		upDelta++
	} else {
		downDelta++
	}
	return action, upDelta, downDelta, nil
}

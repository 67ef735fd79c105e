package timecard

import (
	"fmt"

	"timecard/models"
)

// Event is a lifecycle action applied to the stamps of one (user, month).
type Event string

const (
	EventPromote Event = "promote"
	EventApprove Event = "approve"
	EventDemote  Event = "demote"
)

// transitions is the complete lifecycle. REVISION_REQUESTED has no entry:
// nothing moves into or out of it until a revision flow is added here.
var transitions = map[models.State]map[Event]models.State{
	models.StateNew: {
		EventPromote: models.StateProcessing,
	},
	models.StateProcessing: {
		EventApprove: models.StateApproved,
		EventDemote:  models.StateNew,
	},
}

// Transit returns the state a stamp in from reaches on ev.
func Transit(from models.State, ev Event) (models.State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	switch ev {
	case EventPromote:
		return "", ErrAlreadyPromoted
	case EventApprove, EventDemote:
		return "", ErrNotProcessing
	}
	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}

// TransitBatch applies ev to every stamp of a month. The batch moves as a
// whole: an empty batch or a single stamp that cannot move fails it.
func TransitBatch(stamps []models.Stamp, ev Event) (models.State, error) {
	if len(stamps) == 0 {
		return "", ErrNotStamped
	}
	var to models.State
	for _, s := range stamps {
		next, err := Transit(s.State, ev)
		if err != nil {
			return "", err
		}
		to = next
	}
	return to, nil
}

// AggregateState folds stamp states into the state shown for a month.
func AggregateState(stamps []models.Stamp) models.State {
	state := models.StateNew
	for _, s := range stamps {
		switch s.State {
		case models.StateApproved:
			return models.StateApproved
		case models.StateProcessing:
			state = models.StateProcessing
		}
	}
	return state
}

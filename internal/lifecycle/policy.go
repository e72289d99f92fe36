package lifecycle

import (
	"fmt"

	"github.com/JLabsAU/relay-server/internal/keys/models"
)

// ActionKind is one of the operations a policy may request.
type ActionKind string

const (
	// ActionStripControllers reconciles the key's controller set to empty.
	ActionStripControllers ActionKind = "strip_controllers"
	// ActionRetire permanently deactivates the key. A policy that wants a key
	// retired emits a strip action for it first; retire refuses keys that
	// still have controllers.
	ActionRetire ActionKind = "retire"
)

// Action is one policy-requested operation against one key.
type Action struct {
	Kind ActionKind       `json:"kind"`
	Key  models.KeyRecord `json:"key"`
}

// Policy decides what should happen to the ordered key list of one handle.
// Policies are pure: they plan, the Manager executes. Keys arrive ordered by
// mint sequence ascending, so "newest" is always the last element by
// contract, never by guesswork at a call site.
type Policy interface {
	Name() string
	Plan(keys []models.KeyRecord) []Action
}

// StripAllButNewest removes every controller from all keys except the newest.
// Older keys stay minted but can no longer be directed by anyone.
type StripAllButNewest struct{}

func (StripAllButNewest) Name() string { return "strip-all-but-newest" }

func (StripAllButNewest) Plan(keys []models.KeyRecord) []Action {
	if len(keys) < 2 {
		return nil
	}
	actions := make([]Action, 0, len(keys)-1)
	for _, k := range keys[:len(keys)-1] {
		actions = append(actions, Action{Kind: ActionStripControllers, Key: k})
	}
	return actions
}

// RetireAllButNewest strips and permanently retires every key except the
// newest. The destructive variant of StripAllButNewest.
type RetireAllButNewest struct{}

func (RetireAllButNewest) Name() string { return "retire-all-but-newest" }

func (RetireAllButNewest) Plan(keys []models.KeyRecord) []Action {
	if len(keys) < 2 {
		return nil
	}
	actions := make([]Action, 0, 2*(len(keys)-1))
	for _, k := range keys[:len(keys)-1] {
		actions = append(actions,
			Action{Kind: ActionStripControllers, Key: k},
			Action{Kind: ActionRetire, Key: k},
		)
	}
	return actions
}

// RetireOlderThan retires keys more than Positions behind the newest key.
// Keys within the window keep their controllers untouched.
type RetireOlderThan struct {
	Positions int
}

func (p RetireOlderThan) Name() string {
	return fmt.Sprintf("retire-older-than-%d", p.Positions)
}

func (p RetireOlderThan) Plan(keys []models.KeyRecord) []Action {
	if p.Positions < 1 || len(keys) <= p.Positions {
		return nil
	}
	var actions []Action
	for _, k := range keys[:len(keys)-p.Positions] {
		actions = append(actions,
			Action{Kind: ActionStripControllers, Key: k},
			Action{Kind: ActionRetire, Key: k},
		)
	}
	return actions
}

// Noop plans nothing. Useful as an explicit "lifecycle disabled" policy.
type Noop struct{}

func (Noop) Name() string                      { return "noop" }
func (Noop) Plan([]models.KeyRecord) []Action { return nil }

// ByName resolves a configured policy name.
func ByName(name string) (Policy, error) {
	switch name {
	case StripAllButNewest{}.Name():
		return StripAllButNewest{}, nil
	case RetireAllButNewest{}.Name():
		return RetireAllButNewest{}, nil
	case Noop{}.Name():
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown lifecycle policy %q", name)
	}
}

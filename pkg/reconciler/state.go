package reconciler

import "fmt"

// State is the position of a reconciliation task in its lifecycle.
type State string

const (
	StatePending      State = "pending"
	StateListing      State = "listing"
	StateMatchFound   State = "match-found"
	StateNoMatch      State = "no-match"
	StateDeleting     State = "deleting"
	StateCreated      State = "created"
	StateDeleteFailed State = "delete-failed"
	StateCreateFailed State = "create-failed"
	StateListFailed   State = "list-failed"

	// StatePlanned ends every task of a dry run once the remote match has
	// been resolved.
	StatePlanned State = "planned"
)

// transitions lists the allowed successors of every non-terminal state.
// deleting -> create-failed is reachable only when delete failures are
// configured to proceed to create.
var transitions = map[State][]State{
	StatePending:    {StateListing},
	StateListing:    {StateMatchFound, StateNoMatch, StateListFailed},
	StateMatchFound: {StateDeleting, StatePlanned},
	StateNoMatch:    {StateCreated, StateCreateFailed, StatePlanned},
	StateDeleting:   {StateCreated, StateDeleteFailed, StateCreateFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	switch s {
	case StateDeleteFailed, StateCreateFailed, StateListFailed:
		return true
	}
	return false
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// advance moves the task to next. An illegal transition is a programming
// error.
func (r *TaskResult) advance(next State) {
	if !canTransition(r.State, next) {
		panic(fmt.Sprintf("reconciler: invalid transition %s -> %s", r.State, next))
	}
	r.State = next
	r.History = append(r.History, next)
}

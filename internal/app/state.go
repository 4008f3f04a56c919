package app

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/okian/tripsync/pkg/logger"
)

// State is the lifecycle position of a run.
type State string

// Run states.
const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateFetching   State = "fetching"
	StateWriting    State = "writing"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

// Run events.
const (
	eventConnect = "connect"
	eventFetch   = "fetch"
	eventWrite   = "write"
	eventCommit  = "commit"
	eventFail    = "fail"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// newRunState builds the state machine of one run. Transitions are logged at
// debug level.
func newRunState(log logger.Logger) *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventConnect, Src: []string{string(StateIdle)}, Dst: string(StateConnecting)},
			{Name: eventFetch, Src: []string{string(StateConnecting)}, Dst: string(StateFetching)},
			{Name: eventWrite, Src: []string{string(StateFetching)}, Dst: string(StateWriting)},
			{Name: eventCommit, Src: []string{string(StateWriting)}, Dst: string(StateCommitted)},
			{
				Name: eventFail,
				Src: []string{
					string(StateIdle),
					string(StateConnecting),
					string(StateFetching),
					string(StateWriting),
				},
				Dst: string(StateFailed),
			},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				log.Debug(ctx, "state changed",
					logger.String("event", e.Event),
					logger.String("from", e.Src),
					logger.String("to", e.Dst))
			},
		},
	)
}

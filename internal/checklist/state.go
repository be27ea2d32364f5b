package checklist

import (
	"context"

	"github.com/looplab/fsm"

	"fleetcheck-backend/internal/model"
)

// EventReturn is the only transition a checklist record ever takes: it
// closes once and never reopens.
const EventReturn = "return"

// newStatusMachine builds the status machine positioned at the record's
// current status.
func newStatusMachine(current string) *fsm.FSM {
	return fsm.NewFSM(
		current,
		fsm.Events{
			{Name: EventReturn, Src: []string{model.ChecklistOpenStatus}, Dst: model.ChecklistClosedStatus},
		},
		fsm.Callbacks{},
	)
}

// canReturn reports whether a record in the given status may take the
// return transition.
func canReturn(ctx context.Context, status string) bool {
	return newStatusMachine(status).Event(ctx, EventReturn) == nil
}

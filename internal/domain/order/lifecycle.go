package order

import "fmt"

// Transition names a lifecycle operation applied to an order.
type Transition string

const (
	TransitionComplete Transition = "complete"
	TransitionCancel   Transition = "cancel"
	TransitionMarkPaid Transition = "mark_paid"
	// TransitionEdit changes lines, note or payment selection. It keeps the
	// state but is only legal while the order is pending.
	TransitionEdit Transition = "edit"
)

// State is the (status, paid) pair the lifecycle rules operate on.
type State struct {
	Status Status
	IsPaid bool
}

// Initial is the state of a freshly placed order.
var Initial = State{Status: StatusPending}

func (s State) String() string {
	paid := "unpaid"
	if s.IsPaid {
		paid = "paid"
	}
	return fmt.Sprintf("%s/%s", s.Status, paid)
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Status == StatusCancelled || (s.Status == StatusCompleted && s.IsPaid)
}

// Next returns the state reached by applying t to from, or an
// *InvalidTransitionError.
//
//	complete:  (Pending, *)            -> (Completed, *)
//	cancel:    (Pending, unpaid)       -> (Cancelled, unpaid)
//	mark_paid: (Pending|Completed, unpaid) -> (same, paid)
//	edit:      (Pending, *)            -> unchanged
func Next(from State, t Transition) (State, error) {
	switch t {
	case TransitionComplete:
		if from.Status == StatusPending {
			return State{Status: StatusCompleted, IsPaid: from.IsPaid}, nil
		}
	case TransitionCancel:
		// Paid orders cannot be cancelled: there is no refund flow.
		if from.Status == StatusPending && !from.IsPaid {
			return State{Status: StatusCancelled}, nil
		}
	case TransitionMarkPaid:
		if !from.IsPaid && from.Status != StatusCancelled && from.Status.Valid() {
			return State{Status: from.Status, IsPaid: true}, nil
		}
	case TransitionEdit:
		if from.Status == StatusPending {
			return from, nil
		}
	}
	return from, &InvalidTransitionError{From: from, Transition: t}
}

package domain

// Transitions is a status graph shared by the payment and ticket lifecycles.
// A status with no outgoing edge is terminal.
type Transitions[S comparable] struct {
	edges map[S]map[S]struct{}
}

func NewTransitions[S comparable](edges map[S][]S) Transitions[S] {
	t := Transitions[S]{edges: make(map[S]map[S]struct{}, len(edges))}
	for from, targets := range edges {
		set := make(map[S]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		t.edges[from] = set
	}
	return t
}

// Allowed reports whether from -> to is a legal move.
func (t Transitions[S]) Allowed(from, to S) bool {
	_, ok := t.edges[from][to]
	return ok
}

// Terminal reports whether no further move is possible from s.
func (t Transitions[S]) Terminal(s S) bool {
	return len(t.edges[s]) == 0
}

// Next lists the statuses reachable from s in one move.
func (t Transitions[S]) Next(s S) []S {
	out := make([]S, 0, len(t.edges[s]))
	for to := range t.edges[s] {
		out = append(out, to)
	}
	return out
}

var PaymentTransitions = NewTransitions(map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusApproved, PaymentStatusRejected},
})

var TicketTransitions = NewTransitions(map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusInProgress: {TicketStatusResolved},
})

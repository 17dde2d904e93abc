package pipeline

type State string

const (
	StateReceived        State = "RECEIVED"
	StateTenantResolved  State = "TENANT_RESOLVED"
	StateLoggedInbound   State = "LOGGED_INBOUND"
	StateAnswerGenerated State = "ANSWER_GENERATED"
	StateLoggedOutbound  State = "LOGGED_OUTBOUND"
	StateDelivered       State = "DELIVERED"

	// StateAbandoned ends an event that needs no answer: unknown tenant or no delivery token.
	StateAbandoned State = "ABANDONED"
	// StateFailed ends an event whose processing errored after it was acknowledged.
	StateFailed State = "FAILED"
)

func (s State) Terminal() bool {
	return s == StateDelivered || s == StateAbandoned || s == StateFailed
}

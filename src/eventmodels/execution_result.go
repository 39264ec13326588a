package eventmodels

type ExecutionOutcome string

const (
	ExecutionOutcomePlaced   ExecutionOutcome = "PLACED"
	ExecutionOutcomeRejected ExecutionOutcome = "REJECTED"
	ExecutionOutcomeSkipped  ExecutionOutcome = "SKIPPED"
)

// ExecutionResult is what became of a signal. Order is set only when the outcome is
// ExecutionOutcomePlaced; Reason explains rejections and skips.
type ExecutionResult struct {
	Outcome ExecutionOutcome
	Order   *OrderResponse
	Reason  string
}

func NewPlacedResult(order OrderResponse) ExecutionResult {
	return ExecutionResult{Outcome: ExecutionOutcomePlaced, Order: &order}
}

func NewRejectedResult(reason string) ExecutionResult {
	return ExecutionResult{Outcome: ExecutionOutcomeRejected, Reason: reason}
}

func NewSkippedResult(reason string) ExecutionResult {
	return ExecutionResult{Outcome: ExecutionOutcomeSkipped, Reason: reason}
}

package agent

import "fmt"

// LoopPhase names a state in the turn-by-turn state machine, used for
// logging and for LoopError's context.
type LoopPhase string

const (
	PhaseInit          LoopPhase = "init"
	PhaseSummarize     LoopPhase = "summarize"
	PhaseComplete      LoopPhase = "complete"
	PhaseExecuteTools  LoopPhase = "execute_tools"
	PhaseContinue      LoopPhase = "continue"
)

// LoopError wraps a failure with the phase and turn it occurred in. The
// literal error strings it carries (budget exhaustion, max attempts, cache
// miss) are always present verbatim in Error(), so downstream consumers can
// match on them regardless of the wrapping phase/turn context. The unknown
// provider and unsupported role/content literals below are plain errors,
// not LoopErrors.
type LoopError struct {
	Phase   LoopPhase
	Turn    int
	Message string
	Cause   error
}

func (e *LoopError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("loop error at %s (turn %d)", e.Phase, e.Turn)
}

func (e *LoopError) Unwrap() error { return e.Cause }

// errBudgetExhausted builds the literal "Budget tokens <N> exhausted" error.
func errBudgetExhausted(budget int, phase LoopPhase, turn int) error {
	return &LoopError{Phase: phase, Turn: turn, Message: fmt.Sprintf("Budget tokens %d exhausted", budget)}
}

// errMaxAttempts builds the literal "Failed to perform step, max attempts reached" error.
func errMaxAttempts(turn int) error {
	return &LoopError{Phase: PhaseContinue, Turn: turn, Message: "Failed to perform step, max attempts reached"}
}

// errUnknownProvider builds the literal "Unknown provider: <name>" error.
func errUnknownProvider(name string) error {
	return fmt.Errorf("Unknown provider: %s", name)
}

// ErrUnsupportedRole builds the literal "Unsupported message role: <role>" error.
func ErrUnsupportedRole(role string) error {
	return fmt.Errorf("Unsupported message role: %s", role)
}

// ErrUnsupportedContentType builds the literal "Unsupported content part type: <type>" error.
func ErrUnsupportedContentType(t string) error {
	return fmt.Errorf("Unsupported content part type: %s", t)
}

// toolCallExpectedError is the literal toolError text attached to an
// assistant message that produced zero tool calls (§4.1 step 8).
const toolCallExpectedError = "Error: tool call is expected in every assistant message. Call \"report_result\" when complete."

// disallowedToolCallText is the literal isError text attached when
// onBeforeToolCall returns 'disallow'.
const disallowedToolCallText = "Tool call is disallowed."

// disallowedToolResultText is the literal isError text attached when
// onAfterToolCall returns 'disallow'.
const disallowedToolResultText = "Tool result is disallowed to be reported."

// toolExecutionErrorText formats the literal isError text attached when a
// tool callback returns an error.
func toolExecutionErrorText(name string, err error) string {
	return fmt.Sprintf("Error while executing tool %q: %v\n\nPlease try to recover and complete the task.", name, err)
}

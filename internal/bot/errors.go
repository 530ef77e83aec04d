package bot

import (
	"errors"
	"fmt"
)

// ErrAmountRange is returned for percentage bounds outside 0 <= min <= max <= 100.
var ErrAmountRange = errors.New("invalid percentage range")

// Step identifies an executor stage.
type Step string

const (
	StepApproval Step = "approval"
	StepPool     Step = "pool"
	StepQuote    Step = "quote"
	StepSwap     Step = "swap"
)

var stepTitles = map[Step]string{
	StepApproval: "token approval failed",
	StepPool:     "pool lookup failed",
	StepQuote:    "quote failed",
	StepSwap:     "swap execution failed",
}

// StepError is an executor failure that has already been published.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	title, ok := stepTitles[e.Step]
	if !ok {
		title = string(e.Step) + " failed"
	}
	return fmt.Sprintf("%s: %v", title, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

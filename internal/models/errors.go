package models

import (
	"errors"
	"fmt"
)

// Reason classifies why a recording was excluded from the study.
type Reason string

const (
	ReasonDataInvalid                   Reason = "data invalid"
	ReasonMinVarianceNegative           Reason = "min variance negative"
	ReasonMaxVarianceNegative           Reason = "max variance negative"
	ReasonMinVarianceExceedsMaxVariance Reason = "min variance exceeds max variance"
	ReasonMinVarianceUnusuallyHigh      Reason = "min variance unusually high"
)

// ExclusionError marks a recording whose underlying data is suspect. It is the
// expected outcome for bad recordings rather than a bug path: callers exclude
// the recording and carry on.
type ExclusionError struct {
	Subject    int
	Experiment string
	Reason     Reason
	Detail     string
}

func (e *ExclusionError) Error() string {
	msg := fmt.Sprintf("subj%02d/%s excluded: %s", e.Subject, e.Experiment, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// NewExclusion constructs an ExclusionError for one recording.
func NewExclusion(subject int, experiment string, reason Reason, detail string) error {
	return &ExclusionError{Subject: subject, Experiment: experiment, Reason: reason, Detail: detail}
}

// ExclusionReason extracts the reason code when err is an exclusion, with ok
// reporting whether it was one.
func ExclusionReason(err error) (Reason, bool) {
	var excl *ExclusionError
	if errors.As(err, &excl) {
		return excl.Reason, true
	}
	return "", false
}

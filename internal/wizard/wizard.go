// Package wizard holds the step and status rules shared by the multi-step
// applications.
package wizard

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/forms"
)

// ResumeHeader carries the resume token on applicant requests.
const ResumeHeader = "X-Resume-Token"

// Application statuses.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusNeedsInfo   = "needs_info"
	StatusRejected    = "rejected"
)

var (
	ErrStepOutOfRange  = errors.New("step does not exist")
	ErrStepLocked      = errors.New("step is not reachable yet")
	ErrNotEditable     = errors.New("application can no longer be edited")
	ErrIncomplete      = errors.New("application has incomplete steps")
	ErrInvalidStatus   = errors.New("invalid application status")
	ErrBadResumeToken  = errors.New("invalid resume token")
	ErrNotFound        = errors.New("application not found")
	ErrUnknownStepData = errors.New("unknown step")
)

var statuses = []string{
	StatusDraft, StatusSubmitted, StatusUnderReview,
	StatusApproved, StatusNeedsInfo, StatusRejected,
}

func Statuses() []string {
	return append([]string(nil), statuses...)
}

func ValidStatus(s string) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Editable reports whether the applicant may still change steps and submit.
func Editable(status string) bool {
	return status == StatusDraft || status == StatusNeedsInfo
}

// Step names one page of a wizard.
type Step struct {
	Number int    `json:"number"`
	Key    string `json:"key"`
	Title  string `json:"title"`
}

// CheckStep rejects step numbers outside 1..total and steps beyond the one
// the applicant has reached.
func CheckStep(current, n, total int) error {
	if n < 1 || n > total {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, n)
	}
	if n > current {
		return fmt.Errorf("%w: %d (current step %d)", ErrStepLocked, n, current)
	}
	return nil
}

// Advance returns the current step after step n was saved.
func Advance(current, n, total int) int {
	return min(max(current, n+1), total)
}

// Checker is implemented by step structs with rules the struct tags cannot
// express, such as percentages that must add up.
type Checker interface {
	Check() error
}

// Decode unmarshals raw over dst and validates the result. Fields missing
// from raw keep the values dst already had.
func Decode(raw []byte, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return &forms.ValidationError{Message: "Invalid request body"}
	}
	return Validate(dst)
}

// Validate checks a step struct against its tags and its Check method.
func Validate(step interface{}) error {
	if err := forms.Validate(step); err != nil {
		return err
	}
	if c, ok := step.(Checker); ok {
		return c.Check()
	}
	return nil
}

// Missing returns the numbers of the steps that are absent or invalid.
// steps[i] is step i+1; a nil entry is a step never saved.
func Missing(steps []interface{}) []int {
	var out []int
	for i, s := range steps {
		if isNil(s) || Validate(s) != nil {
			out = append(out, i+1)
		}
	}
	return out
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// NewResumeToken returns a fresh token and the hash to store.
func NewResumeToken() (token, hash string) {
	token = uuid.NewString()
	return token, HashToken(token)
}

func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenMatches compares a presented token with a stored hash.
func TokenMatches(storedHash, token string) bool {
	if token == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashToken(token))) == 1
}

// SumPercentages is a helper for beneficiary splits.
func SumPercentages(shares []float64) float64 {
	var total float64
	for _, s := range shares {
		total += s
	}
	return total
}

// CheckShares requires non-empty share lists to total 100%.
func CheckShares(field string, shares []float64) error {
	if len(shares) == 0 {
		return nil
	}
	total := SumPercentages(shares)
	if total < 99.99 || total > 100.01 {
		return &forms.ValidationError{Fields: map[string]string{
			field: fmt.Sprintf("%s percentages must add up to 100 (got %.2f)", field, total),
		}}
	}
	return nil
}

// StatusCode maps wizard errors to HTTP status codes; unknown errors are
// reported as 500.
func StatusCode(err error) int {
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrStepOutOfRange),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrBadResumeToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStepLocked),
		errors.Is(err, ErrNotEditable),
		errors.Is(err, ErrIncomplete):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

package classifier

import (
	"fmt"
	"net/http"
	"strings"

	"go-linkcheck/internal/models"
)

// Policy decides which HTTP statuses count as reachable.
type Policy string

const (
	// PolicyExact accepts only 200 OK.
	PolicyExact Policy = "exact"
	// Policy2xx accepts any 2xx status.
	Policy2xx Policy = "2xx"
)

// ParsePolicy maps a config value to a Policy. Empty means PolicyExact.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyExact:
		return PolicyExact, nil
	case Policy2xx:
		return Policy2xx, nil
	default:
		return "", fmt.Errorf("unknown status policy %q", s)
	}
}

type Classifier struct {
	policy Policy
}

func New() *Classifier { return &Classifier{policy: PolicyExact} }

func NewWithPolicy(p Policy) *Classifier {
	if p == "" {
		p = PolicyExact
	}
	return &Classifier{policy: p}
}

// Classify turns the result of a probe into an outcome. Any transport error
// is Broken regardless of status; redirects that were not followed to a
// success are Broken too.
func (c *Classifier) Classify(status int, err error) models.Outcome {
	if err != nil {
		return models.OutcomeBroken
	}
	switch c.policy {
	case Policy2xx:
		if status >= 200 && status < 300 {
			return models.OutcomeOK
		}
	default:
		if status == http.StatusOK {
			return models.OutcomeOK
		}
	}
	return models.OutcomeBroken
}

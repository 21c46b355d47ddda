package simulated

import (
	"context"
	"regexp"
	"strings"

	"github.com/aescanero/autogent/pkg/ports"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d -]{7,}\d`)

	defaultBlocklist = []string{"kill", "bomb", "attack"}
	biasTerms        = []string{"always", "never", "all women", "all men", "those people"}
)

// SafetyChecker applies keyword and pattern rules
type SafetyChecker struct {
	blocklist []string
}

// NewSafetyChecker creates a checker. A nil blocklist uses the built-in one.
func NewSafetyChecker(blocklist []string) *SafetyChecker {
	if blocklist == nil {
		blocklist = defaultBlocklist
	}
	return &SafetyChecker{blocklist: blocklist}
}

// Check evaluates text under operation
func (s *SafetyChecker) Check(ctx context.Context, operation, text string, params map[string]interface{}) (*ports.SafetyResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)

	switch operation {
	case "content_check":
		hits := matches(lower, s.blocklist)
		return verdict(len(hits) > 0, false, map[string]interface{}{"matched": hits}), nil
	case "pii_scan":
		emails := emailPattern.FindAllString(text, -1)
		phones := phonePattern.FindAllString(text, -1)
		found := len(emails)+len(phones) > 0
		return verdict(found, false, map[string]interface{}{
			"emails": len(emails),
			"phones": len(phones),
		}), nil
	case "bias_audit":
		hits := matches(lower, biasTerms)
		threshold := intParam(params, "threshold", 2)
		return verdict(len(hits) >= threshold, len(hits) > 0, map[string]interface{}{"matched": hits}), nil
	default:
		return nil, unsupported("safety", operation)
	}
}

func matches(text string, terms []string) []string {
	hits := []string{}
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

func verdict(block, warn bool, details map[string]interface{}) *ports.SafetyResult {
	switch {
	case block:
		return &ports.SafetyResult{Verdict: ports.VerdictBlock, Blocking: true, Details: details}
	case warn:
		return &ports.SafetyResult{Verdict: ports.VerdictWarn, Details: details}
	default:
		return &ports.SafetyResult{Verdict: ports.VerdictAllow, Details: details}
	}
}

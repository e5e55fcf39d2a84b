package settings

import (
	"fmt"
	"strings"
)

// VerificationResult contains the result of reading a commit back
type VerificationResult struct {
	// Success indicates the store holds exactly the expected values
	Success bool

	// Actual is the WorkingSet read back from the store
	Actual WorkingSet

	// Mismatches lists every key whose stored value differs
	Mismatches []string

	// Error summarizes the mismatches when Success is false
	Error error
}

// Verify reloads the store and compares it against expected
func (r *Reconciler) Verify(expected WorkingSet) *VerificationResult {
	actual := r.Load()
	mismatches := verifyWorkingSetMatch(r.complete(expected), actual)

	result := &VerificationResult{
		Success:    len(mismatches) == 0,
		Actual:     actual,
		Mismatches: mismatches,
	}
	if !result.Success {
		result.Error = fmt.Errorf("verification failed: %s", formatMismatches(mismatches))
	}
	return result
}

// CommitAndVerify commits ws and reads it back. A failed commit is reported
// through the CommitResult and verification is skipped.
func (r *Reconciler) CommitAndVerify(ws WorkingSet) (*CommitResult, *VerificationResult) {
	result := r.Commit(ws)
	if !result.Success {
		return result, &VerificationResult{Error: fmt.Errorf("commit failed: %w", result.Error)}
	}
	return result, r.Verify(ws)
}

// verifyWorkingSetMatch returns one line per key that differs
func verifyWorkingSetMatch(expected, actual WorkingSet) []string {
	var mismatches []string
	for _, f := range schema {
		want, got := expected[f.Key], actual[f.Key]
		if want.Equal(got) {
			continue
		}
		if f.Secret {
			mismatches = append(mismatches, fmt.Sprintf("%s: stored value differs", f.Key))
			continue
		}
		mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s", f.Key, want, got))
	}
	return mismatches
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	default:
		return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
	}
}

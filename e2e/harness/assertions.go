package harness

import (
	"slices"
	"strings"
	"testing"
)

// Assertions provides E2E-specific assertions.
type Assertions struct {
	t *testing.T
}

// NewAssertions creates an assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// OutputContains asserts the output contains all given strings.
func (a *Assertions) OutputContains(output string, expected ...string) {
	a.t.Helper()
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			a.t.Errorf("expected output to contain %q, got:\n%s", exp, truncate(output, 500))
		}
	}
}

// OutputNotContains asserts the output does not contain any of the given strings.
func (a *Assertions) OutputNotContains(output string, unexpected ...string) {
	a.t.Helper()
	for _, unexp := range unexpected {
		if strings.Contains(output, unexp) {
			a.t.Errorf("expected output NOT to contain %q, got:\n%s", unexp, truncate(output, 500))
		}
	}
}

// Visible asserts the visible rows are exactly ids, in order.
func (a *Assertions) Visible(state *State, ids ...string) {
	a.t.Helper()
	if !slices.Equal(state.Tree.Visible, ids) {
		a.t.Errorf("expected visible rows %v, got %v", ids, state.Tree.Visible)
	}
}

// Expanded asserts the visible row id is expanded.
func (a *Assertions) Expanded(state *State, id string) {
	a.t.Helper()
	expanded, ok := state.Tree.Expanded[id]
	if !ok {
		a.t.Errorf("row %q is not visible", id)
		return
	}
	if !expanded {
		a.t.Errorf("expected row %q to be expanded", id)
	}
}

// Collapsed asserts the visible row id is collapsed.
func (a *Assertions) Collapsed(state *State, id string) {
	a.t.Helper()
	expanded, ok := state.Tree.Expanded[id]
	if !ok {
		a.t.Errorf("row %q is not visible", id)
		return
	}
	if expanded {
		a.t.Errorf("expected row %q to be collapsed", id)
	}
}

// NoError asserts the output doesn't contain error indicators.
func (a *Assertions) NoError(output string) {
	a.t.Helper()
	errorIndicators := []string{"✗", "panic:", "PANIC:"}
	for _, ind := range errorIndicators {
		if strings.Contains(output, ind) {
			a.t.Errorf("unexpected error in output: found %q in:\n%s", ind, truncate(output, 500))
			return
		}
	}
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}

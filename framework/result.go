package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns the number of tests that passed, failed, and were skipped by the tests
// themselves. Tests excluded by filter parameters are not counted.
func (r Results) Counts() (passed, failed, skipped int) {
	failedIDs := make(map[string]bool, len(r.Failures))
	for _, f := range r.Failures {
		failedIDs[f.TestID.String()] = true
	}
	for _, t := range r.Tests {
		switch {
		case t.Skipped:
			skipped++
		case failedIDs[t.TestID.String()]:
			failed++
		default:
			passed++
		}
	}
	return
}

type TestID struct {
	Path []string
}

// Plus returns a new TestID for a subtest of this one.
func (t TestID) Plus(name string) TestID {
	return TestID{Path: append(append([]string(nil), t.Path...), name)}
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// PrintResults writes a summary of the test run, listing every failed test with its errors.
func PrintResults(out io.Writer, results Results) {
	passed, failed, skipped := results.Counts()
	if results.OK() {
		fmt.Fprintf(out, "%s (%d passed, %d skipped)\n", color.GreenString("All tests passed"), passed, skipped)
		return
	}
	fmt.Fprintf(out, "%s (%d passed, %d failed, %d skipped)\n",
		color.RedString("FAILED TESTS:"), passed, failed, skipped)
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		}
	}
}

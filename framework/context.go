package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

// Context is the state of one test or subtest. It implements the TestingT interfaces of
// testify's assert and require packages, so assertions can be made against it directly.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	group       bool
}

// Run starts a test run at the root level. The action is called with a root Context whose
// ID is empty; tests are declared by calling Run on it.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if c.skipped {
				c.recordResult()
				return
			}
			c.failed = true
			var addError error
			if _, ok := r.(*Context); ok {
				if len(c.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				c.errors = append(c.errors, addError)
				c.env.testLogger.TestError(c.id, addError)
			}
		}
		c.recordResult()
	}()

	action(c)
}

func (c *Context) recordResult() {
	if len(c.id.Path) == 0 || (c.group && !c.failed) {
		return
	}
	result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped}
	c.env.results.Tests = append(c.env.results.Tests, result)
	if c.failed {
		c.env.results.Failures = append(c.env.results.Failures, result)
	}
}

// ID returns the full identifier of this test.
func (c *Context) ID() TestID {
	return c.id
}

// Run runs a subtest. The subtest is skipped without being started if the filter
// excludes it. A failure in the subtest does not fail its parent.
func (c *Context) Run(name string, action func(*Context)) {
	id := c.id.Plus(name)
	if !c.Selected(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c.runChild(id, false, action)
}

// RunGroup runs a subtest that only serves to group other tests. The filter is not
// applied to the group itself, only to the tests declared inside it.
func (c *Context) RunGroup(name string, action func(*Context)) {
	c.runChild(c.id.Plus(name), true, action)
}

// Selected reports whether the filter parameters of this run include the given test.
func (c *Context) Selected(id TestID) bool {
	return c.env.filter == nil || c.env.filter(id)
}

func (c *Context) runChild(id TestID, group bool, action func(*Context)) {
	c.env.testLogger.TestStarted(id)
	c1 := &Context{
		id:    id,
		env:   c.env,
		group: group,
	}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Errorf records a failure without stopping the test. The assert package calls it.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

// FailNow stops the test immediately. The require package calls it.
func (c *Context) FailNow() {
	c.failed = true
	panic(c)
}

// Failed reports whether any failure has been recorded for this test.
func (c *Context) Failed() bool {
	return c.failed
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}

// testify's assertion messages contain a leading blank line and tab indentation that
// look odd in console output.
func reformatError(err error) error {
	s := strings.TrimLeft(err.Error(), "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimRight(line, " \t"), "\t")
	}
	return errors.New(strings.Join(lines, "\n"))
}

package catalogtests

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/catalogqa/catalog-contract-tests/catalogapi"
	"github.com/catalogqa/catalog-contract-tests/config"
	"github.com/catalogqa/catalog-contract-tests/framework"
	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/validation"

	"github.com/stretchr/testify/require"
)

const (
	minTitleSuffix = 999
	maxTitleSuffix = 9999
)

// TitleGenerator returns a fresh title starting with prefix.
type TitleGenerator func(prefix string) string

// RandomTitles appends a random number in [999, 9999) to the prefix, so that repeated runs
// against the same service are unlikely to collide.
func RandomTitles(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, minTitleSuffix+rand.Intn(maxTitleSuffix-minTitleSuffix))
}

type environment struct {
	ctx      context.Context
	executor Executor
	config   config.Config
	titles   TitleGenerator
}

// T represents a test or subtest in the catalog test suite.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner, and with per-test debug logging provided by the framework
// package. To make assertions, pass the *T to the assert and require packages as if it were
// a *testing.T.
//
// It also has methods for performing one step of a scenario: sending a request, checking the
// response, and extracting values for later steps. A step whose output later steps depend on
// ends the test if it fails; a step that only verifies something does not.
type T struct {
	context *framework.Context
	env     *environment
}

func newTestScope(context *framework.Context, env *environment) *T {
	return &T{context: context, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods
// in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Failed reports whether the test has failed so far.
func (t *T) Failed() bool {
	return t.context.Failed()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.env))
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger
// at the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Fixtures returns the configured fixture data.
func (t *T) Fixtures() config.Fixtures {
	return t.env.config.Fixtures
}

// NewTitle generates a title that is unique to this scenario run.
func (t *T) NewTitle(prefix string) string {
	title := t.env.titles(prefix)
	t.Debug("generated title %q", title)
	return title
}

// Execute sends a request and returns the response. A transport failure ends the test.
func (t *T) Execute(step string, req harness.Request) harness.Response {
	resp, err := t.env.executor.Do(t.env.ctx, req, t.context.DebugLogger())
	require.NoError(t, err, "%s: request failed", step)
	return resp
}

// Call builds the request for an operation and executes it. An operation that cannot be
// built, for instance because an id from an earlier step is missing, ends the test.
func (t *T) Call(step string, kind catalogapi.Kind, op catalogapi.Operation, params catalogapi.Params) harness.Response {
	req, err := catalogapi.Build(kind, op, params)
	require.NoError(t, err, "%s: cannot build request", step)
	return t.Execute(step, req)
}

// Check reports every violation of the expectations as a test error, and returns true if
// there were none. The test continues either way.
func (t *T) Check(step string, resp harness.Response, exp validation.Expectations) bool {
	exp.Step = step
	violations := validation.Validate(resp, exp)
	for _, v := range violations {
		t.Errorf("%s", v)
	}
	return len(violations) == 0
}

// RequireCheck is like Check, but ends the test after reporting if there were violations.
func (t *T) RequireCheck(step string, resp harness.Response, exp validation.Expectations) {
	if !t.Check(step, resp, exp) {
		t.FailNow()
	}
}

// RequireDecode decodes the response body into target, ending the test if it cannot.
func (t *T) RequireDecode(step string, resp harness.Response, target interface{}) {
	if v := validation.DecodeInto(step, resp, target); v != nil {
		t.Errorf("%s", v)
		t.FailNow()
	}
}

// RequireCreatedID returns the _id from the response to a create operation. The test ends
// if it is absent or empty, since every later step would depend on it.
func (t *T) RequireCreatedID(step string, resp harness.Response) string {
	var created struct {
		ID string `json:"_id"`
	}
	t.RequireDecode(step, resp, &created)
	if created.ID == "" {
		t.Errorf("%s: expected a non-empty _id in the response, got %s", step, resp.BodyPreview())
		t.FailNow()
	}
	t.Debug("%s: created %s", step, created.ID)
	return created.ID
}

// RequirePrecondition ends the test if some data the scenario relies on is not present in
// the service. This is a failure, not a skip.
func (t *T) RequirePrecondition(ok bool, format string, args ...interface{}) {
	if !ok {
		t.Errorf("precondition failed: "+format, args...)
		t.FailNow()
	}
}

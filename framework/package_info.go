// Package framework contains the low-level implementation of test harness infrastructure
// that does not know anything about the book catalog domain.
//
// The general model is:
//
// 1. The harness talks to a remote service over HTTP; the harness subpackage executes
// requests and records every exchange in the debug log of the current test.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results. Tests can be grouped, filtered by regex, and skipped.
//
// The domain-specific code that knows what is being tested is responsible for building
// requests, deciding what a valid response looks like, and ordering the tests.
package framework

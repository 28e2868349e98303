// Package validation checks HTTP responses from the catalog service against the expected
// status, JSON shape and field values. Every check is evaluated on its own, so a single
// response can produce any number of violations.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/catalogqa/catalog-contract-tests/framework/harness"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const absent = "<absent>"

// Shape is the expected top-level form of a response body.
type Shape int

const (
	// ShapeAny accepts any body, including none.
	ShapeAny Shape = iota
	ShapeObject
	ShapeArray
	// ShapeNotFound expects the service's not-found representation: an empty body or a
	// literal null.
	ShapeNotFound
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "JSON object"
	case ShapeArray:
		return "JSON array"
	case ShapeNotFound:
		return "empty body or null"
	default:
		return "any body"
	}
}

// Field is an expectation about one value in a JSON document, addressed by a dotted path
// such as "category._id".
type Field struct {
	Path     string
	Value    ldvalue.Value
	NonEmpty bool
}

// Equals expects the value at path to be equal to v. Numbers compare by numeric value,
// so 20 and 20.0 are equal.
func Equals(path string, v ldvalue.Value) Field {
	return Field{Path: path, Value: v}
}

func EqualsString(path, s string) Field {
	return Equals(path, ldvalue.String(s))
}

func EqualsNumber(path string, n float64) Field {
	return Equals(path, ldvalue.Float64(n))
}

// NonEmpty expects the value at path to be present, not null, and not an empty string.
func NonEmpty(path string) Field {
	return Field{Path: path, NonEmpty: true}
}

func (f Field) describe() string {
	if f.NonEmpty {
		return "non-empty value"
	}
	return f.Value.JSONString()
}

// Expectations describe what a response to one step must look like. Zero values disable
// the corresponding check.
type Expectations struct {
	// Step names the step in violation reports.
	Step   string
	Status int
	Shape  Shape
	// Fields are checked against an object body.
	Fields []Field
	// The remaining checks apply to an array body.
	EachElementNonEmpty []string
	MinCount            int
	Count               ldvalue.OptionalInt
	// Contains requires at least one element that satisfies all of these fields.
	Contains []Field
}

// Violation is one failed check.
type Violation struct {
	Step     string
	Check    string
	Expected string
	Actual   string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", v.Step, v.Check, v.Expected, v.Actual)
}

type Violations []Violation

// Err returns nil if there are no violations, or an error listing all of them.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	lines := make([]string, 0, len(vs))
	for _, v := range vs {
		lines = append(lines, v.Error())
	}
	return errors.New(strings.Join(lines, "\n"))
}

// IsNotFound reports whether the body is the service's not-found representation.
func IsNotFound(resp harness.Response) bool {
	body := bytes.TrimSpace(resp.Body)
	return len(body) == 0 || string(body) == "null"
}

// Validate runs every applicable check and returns all violations found.
func Validate(resp harness.Response, exp Expectations) Violations {
	var vs Violations
	fail := func(check, expected, actual string) {
		vs = append(vs, Violation{Step: exp.Step, Check: check, Expected: expected, Actual: actual})
	}

	if exp.Status != 0 && resp.StatusCode != exp.Status {
		fail("status", fmt.Sprint(exp.Status), fmt.Sprintf("%d with body %s", resp.StatusCode, resp.BodyPreview()))
	}

	if exp.Shape == ShapeNotFound {
		if !IsNotFound(resp) {
			fail("not found", ShapeNotFound.String(), resp.BodyPreview())
		}
		return vs
	}

	needsBody := exp.Shape != ShapeAny || len(exp.Fields) > 0 || exp.hasArrayChecks()
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		if needsBody {
			fail("body", "response body", "<empty>")
		}
		return vs
	}
	if !json.Valid(body) {
		fail("body", "valid JSON", resp.BodyPreview())
		return vs
	}
	value := ldvalue.Parse(body)

	switch exp.Shape {
	case ShapeObject:
		if value.Type() != ldvalue.ObjectType {
			fail("shape", exp.Shape.String(), describeType(value))
		}
	case ShapeArray:
		if value.Type() != ldvalue.ArrayType {
			fail("shape", exp.Shape.String(), describeType(value))
		}
	}

	if value.Type() == ldvalue.ObjectType {
		for _, f := range exp.Fields {
			if actual, ok := checkField(value, f); !ok {
				fail("field "+f.Path, f.describe(), actual)
			}
		}
	} else if len(exp.Fields) > 0 && exp.Shape != ShapeObject {
		fail("shape", ShapeObject.String(), describeType(value))
	}

	if value.Type() == ldvalue.ArrayType {
		vs = append(vs, validateArray(value, exp)...)
	} else if exp.hasArrayChecks() && exp.Shape != ShapeArray {
		fail("shape", ShapeArray.String(), describeType(value))
	}

	return vs
}

func (exp Expectations) hasArrayChecks() bool {
	return len(exp.EachElementNonEmpty) > 0 || exp.MinCount > 0 || exp.Count.IsDefined() || len(exp.Contains) > 0
}

func validateArray(value ldvalue.Value, exp Expectations) Violations {
	var vs Violations
	fail := func(check, expected, actual string) {
		vs = append(vs, Violation{Step: exp.Step, Check: check, Expected: expected, Actual: actual})
	}
	count := value.Count()

	if exp.MinCount > 0 && count < exp.MinCount {
		fail("count", fmt.Sprintf("at least %d elements", exp.MinCount), fmt.Sprint(count))
	}
	if n, ok := exp.Count.Get(); ok && count != n {
		fail("count", fmt.Sprintf("%d elements", n), fmt.Sprint(count))
	}

	if len(exp.EachElementNonEmpty) > 0 {
		missing := make(map[string][]int)
		for i := 0; i < count; i++ {
			elem := value.GetByIndex(i)
			for _, path := range exp.EachElementNonEmpty {
				if _, ok := checkField(elem, NonEmpty(path)); !ok {
					missing[path] = append(missing[path], i)
				}
			}
		}
		paths := make([]string, 0, len(missing))
		for p := range missing {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fail("every element has "+p, "non-empty value", fmt.Sprintf("empty or absent at index %v", missing[p]))
		}
	}

	if len(exp.Contains) > 0 && !anyElementMatches(value, exp.Contains) {
		var want []string
		for _, f := range exp.Contains {
			want = append(want, f.Path+"="+f.describe())
		}
		fail("contains", "an element with "+strings.Join(want, ", "),
			fmt.Sprintf("no match among %d elements", count))
	}
	return vs
}

func anyElementMatches(array ldvalue.Value, fields []Field) bool {
	for i := 0; i < array.Count(); i++ {
		elem := array.GetByIndex(i)
		matched := true
		for _, f := range fields {
			if _, ok := checkField(elem, f); !ok {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// checkField evaluates one field expectation and returns the actual value for reporting.
func checkField(doc ldvalue.Value, f Field) (string, bool) {
	actual := Lookup(doc, f.Path)
	if actual.IsNull() {
		if f.NonEmpty || !f.Value.IsNull() {
			return absent, false
		}
		return "null", true
	}
	if f.NonEmpty {
		return actual.JSONString(), !isEmpty(actual)
	}
	return actual.JSONString(), actual.Equal(f.Value)
}

// isEmpty treats "", {} and [] as empty. Numbers and booleans are never empty.
func isEmpty(v ldvalue.Value) bool {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue() == ""
	case ldvalue.ObjectType, ldvalue.ArrayType:
		return v.Count() == 0
	}
	return false
}

// Lookup follows a dotted path through nested objects. Path segments that are integers
// index into arrays. A path that cannot be followed yields null.
func Lookup(doc ldvalue.Value, path string) ldvalue.Value {
	current := doc
	for _, key := range strings.Split(path, ".") {
		switch current.Type() {
		case ldvalue.ObjectType:
			current = current.GetByKey(key)
		case ldvalue.ArrayType:
			index, err := strconv.Atoi(key)
			if err != nil {
				return ldvalue.Null()
			}
			current = current.GetByIndex(index)
		default:
			return ldvalue.Null()
		}
	}
	return current
}

func describeType(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.ObjectType:
		return "JSON object"
	case ldvalue.ArrayType:
		return "JSON array"
	case ldvalue.NullType:
		return "null"
	default:
		return v.Type().String() + " " + v.JSONString()
	}
}

// DecodeInto decodes the response body into target. A body that does not decode is a
// contract violation, reported with the type that was expected.
func DecodeInto(step string, resp harness.Response, target interface{}) *Violation {
	body := bytes.TrimSpace(resp.Body)
	var err error
	if len(body) == 0 {
		err = errors.New("empty body")
	} else {
		err = json.Unmarshal(body, target)
	}
	if err != nil {
		return &Violation{
			Step:     step,
			Check:    "decode",
			Expected: fmt.Sprintf("body decodable as %T", target),
			Actual:   fmt.Sprintf("%s (%s)", err, resp.BodyPreview()),
		}
	}
	return nil
}

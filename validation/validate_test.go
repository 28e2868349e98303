package validation

import (
	"testing"

	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) harness.Response {
	return harness.Response{StatusCode: status, Body: []byte(body)}
}

func checks(vs Violations) []string {
	var ret []string
	for _, v := range vs {
		ret = append(ret, v.Check)
	}
	return ret
}

const bookJSON = `{"_id":"b1","title":"t","author":"a","description":"d","price":20,"pages":350,
	"category":{"_id":"c1","title":"cat"}}`

func TestValidObjectHasNoViolations(t *testing.T) {
	vs := Validate(response(200, bookJSON), Expectations{
		Step:   "get book",
		Status: 200,
		Shape:  ShapeObject,
		Fields: []Field{
			EqualsString("_id", "b1"),
			EqualsString("title", "t"),
			EqualsNumber("price", 20),
			Equals("pages", ldvalue.Int(350)),
			EqualsString("category._id", "c1"),
			NonEmpty("description"),
		},
	})
	assert.Empty(t, vs)
	assert.NoError(t, vs.Err())
}

func TestAllFieldMismatchesAreReported(t *testing.T) {
	vs := Validate(response(200, `{"_id":"b1","title":"wrong","price":21}`), Expectations{
		Step:   "get book",
		Status: 200,
		Shape:  ShapeObject,
		Fields: []Field{
			EqualsString("title", "t"),
			NonEmpty("author"),
			EqualsNumber("price", 20),
			EqualsString("category._id", "c1"),
		},
	})
	assert.Equal(t, []string{"field title", "field author", "field price", "field category._id"}, checks(vs))
	assert.Equal(t, "get book", vs[0].Step)
	assert.Equal(t, `"t"`, vs[0].Expected)
	assert.Equal(t, `"wrong"`, vs[0].Actual)
	assert.Equal(t, absent, vs[1].Actual)
	assert.Equal(t, "21", vs[2].Actual)

	err := vs.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `get book: field title: expected "t", got "wrong"`)
	assert.Contains(t, err.Error(), "field category._id")
}

func TestStatusMismatchDoesNotMaskFieldChecks(t *testing.T) {
	vs := Validate(response(500, `{"title":"x"}`), Expectations{
		Status: 200,
		Shape:  ShapeObject,
		Fields: []Field{EqualsString("title", "y")},
	})
	assert.Equal(t, []string{"status", "field title"}, checks(vs))
}

func TestEmptyStringIsNotNonEmpty(t *testing.T) {
	vs := Validate(response(200, `{"title":"","pages":0}`), Expectations{
		Fields: []Field{NonEmpty("title"), NonEmpty("pages")},
	})
	assert.Equal(t, []string{"field title"}, checks(vs))
}

func TestShapeMismatch(t *testing.T) {
	vs := Validate(response(200, `{"a":1}`), Expectations{Shape: ShapeArray, MinCount: 1})
	assert.Equal(t, []string{"shape"}, checks(vs))
	assert.Equal(t, "JSON array", vs[0].Expected)
	assert.Equal(t, "JSON object", vs[0].Actual)

	vs = Validate(response(200, `[]`), Expectations{Shape: ShapeObject, Fields: []Field{NonEmpty("_id")}})
	assert.Equal(t, []string{"shape"}, checks(vs))
}

func TestMissingOrMalformedBody(t *testing.T) {
	vs := Validate(response(200, ""), Expectations{Status: 200, Shape: ShapeObject})
	assert.Equal(t, []string{"body"}, checks(vs))

	vs = Validate(response(200, `{"_id": `), Expectations{Status: 200, Shape: ShapeObject})
	assert.Equal(t, []string{"body"}, checks(vs))
	assert.Equal(t, "valid JSON", vs[0].Expected)

	assert.Empty(t, Validate(response(200, ""), Expectations{Status: 200}))
}

func TestNotFound(t *testing.T) {
	for _, body := range []string{"", "null", " null\n", "  "} {
		assert.Empty(t, Validate(response(200, body), Expectations{Status: 200, Shape: ShapeNotFound}), "body %q", body)
		assert.True(t, IsNotFound(response(200, body)))
	}

	vs := Validate(response(200, `{"_id":"c1","title":"stale"}`), Expectations{Status: 200, Shape: ShapeNotFound})
	assert.Equal(t, []string{"not found"}, checks(vs))
	assert.Contains(t, vs[0].Actual, "stale")
}

func TestArrayChecks(t *testing.T) {
	body := `[{"_id":"c1","title":"a"},{"_id":"c2","title":"b"}]`
	assert.Empty(t, Validate(response(200, body), Expectations{
		Shape:               ShapeArray,
		MinCount:            1,
		Count:               ldvalue.NewOptionalInt(2),
		EachElementNonEmpty: []string{"_id", "title"},
		Contains:            []Field{EqualsString("_id", "c2"), EqualsString("title", "b")},
	}))

	vs := Validate(response(200, body), Expectations{
		Shape:    ShapeArray,
		MinCount: 3,
		Count:    ldvalue.NewOptionalInt(3),
		Contains: []Field{EqualsString("_id", "c2"), EqualsString("title", "a")},
	})
	assert.Equal(t, []string{"count", "count", "contains"}, checks(vs))
}

func TestEachElementNonEmptyReportsEveryField(t *testing.T) {
	body := `[{"title":"a","author":""},{"title":"","author":"x"},{"author":"y"}]`
	vs := Validate(response(200, body), Expectations{
		Shape:               ShapeArray,
		EachElementNonEmpty: []string{"title", "author", "category"},
	})
	require.Len(t, vs, 3)
	assert.Equal(t, "every element has author", vs[0].Check)
	assert.Equal(t, "empty or absent at index [0]", vs[0].Actual)
	assert.Equal(t, "every element has category", vs[1].Check)
	assert.Equal(t, "every element has title", vs[2].Check)
	assert.Equal(t, "empty or absent at index [1 2]", vs[2].Actual)

	body = `[{"category":{}},{"category":[]},{"category":{"_id":"c1"}},{"category":0}]`
	vs = Validate(response(200, body), Expectations{
		Shape:               ShapeArray,
		EachElementNonEmpty: []string{"category"},
	})
	require.Len(t, vs, 1)
	assert.Equal(t, "every element has category", vs[0].Check)
	assert.Equal(t, "empty or absent at index [0 1]", vs[0].Actual)
}

func TestEmptyArrayFailsMinCount(t *testing.T) {
	vs := Validate(response(200, `[]`), Expectations{Shape: ShapeArray, MinCount: 1})
	assert.Equal(t, []string{"count"}, checks(vs))
}

func TestLookup(t *testing.T) {
	doc := ldvalue.Parse([]byte(`{"a":{"b":[{"c":"x"}]},"s":"v"}`))
	assert.Equal(t, "x", Lookup(doc, "a.b.0.c").StringValue())
	assert.Equal(t, "v", Lookup(doc, "s").StringValue())
	assert.True(t, Lookup(doc, "a.b.x").IsNull())
	assert.True(t, Lookup(doc, "s.t").IsNull())
	assert.True(t, Lookup(doc, "missing").IsNull())
}

func TestDecodeInto(t *testing.T) {
	var book servicedef.Book
	assert.Nil(t, DecodeInto("get book", response(200, bookJSON), &book))
	assert.Equal(t, "c1", book.Category.ID)
	assert.Equal(t, float64(350), book.Pages)

	var books []servicedef.Book
	v := DecodeInto("list books", response(200, `{"not":"an array"}`), &books)
	require.NotNil(t, v)
	assert.Equal(t, "list books", v.Step)
	assert.Equal(t, "decode", v.Check)
	assert.Contains(t, v.Expected, "servicedef.Book")

	v = DecodeInto("get book", response(200, `{"category":42}`), &book)
	require.NotNil(t, v)

	v = DecodeInto("get book", response(200, ""), &book)
	require.NotNil(t, v)
	assert.Contains(t, v.Actual, "empty body")
}

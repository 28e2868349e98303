package catalogapi

import (
	"net/http"
	"testing"

	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPathsAndMethods(t *testing.T) {
	body := servicedef.CategoryParams{Title: "x"}
	for _, tc := range []struct {
		kind   Kind
		op     Operation
		params Params
		method string
		path   string
	}{
		{KindCategory, OpList, Params{}, "GET", "/category"},
		{KindCategory, OpGet, Params{ID: "c1"}, "GET", "/category/c1"},
		{KindCategory, OpCreate, Params{Body: body, Token: "tok"}, "POST", "/category"},
		{KindCategory, OpUpdate, Params{ID: "c1", Body: body, Token: "tok"}, "PUT", "/category/c1"},
		{KindCategory, OpDelete, Params{ID: "c1", Token: "tok"}, "DELETE", "/category/c1"},
		{KindBook, OpList, Params{}, "GET", "/book"},
		{KindBook, OpGet, Params{ID: "b1"}, "GET", "/book/b1"},
		{KindBook, OpCreate, Params{Body: body, Token: "tok"}, "POST", "/book"},
		{KindBook, OpUpdate, Params{ID: "b1", Body: body, Token: "tok"}, "PUT", "/book/b1"},
		{KindBook, OpDelete, Params{ID: "b1", Token: "tok"}, "DELETE", "/book/b1"},
	} {
		t.Run(string(tc.op)+" "+string(tc.kind), func(t *testing.T) {
			req, err := Build(tc.kind, tc.op, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, tc.path, req.Path)
		})
	}
}

func TestBearerTokenOnlyOnMutatingOperations(t *testing.T) {
	req, err := Build(KindBook, OpList, Params{Token: "tok"})
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))

	req, err = Build(KindBook, OpGet, Params{ID: "b1", Token: "tok"})
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))

	req, err = Build(KindBook, OpDelete, Params{ID: "b1", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
}

func TestBuildEncodesBody(t *testing.T) {
	req, err := Build(KindBook, OpCreate, Params{
		Token: "tok",
		Body: servicedef.CreateBookParams{
			Title: "t", Author: "a", Description: "d", Price: 20, Pages: 350, Category: "c1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t,
		`{"title":"t","author":"a","description":"d","price":20,"pages":350,"category":"c1"}`,
		string(req.Body))
}

func TestBuildEncodesPartialUpdateBody(t *testing.T) {
	partial := ldvalue.ObjectBuild().
		Set("title", ldvalue.String("Updated Book Title")).
		Set("author", ldvalue.String("Updated Author")).
		Build()
	req, err := Build(KindBook, OpUpdate, Params{ID: "b1", Token: "tok", Body: partial})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Updated Book Title","author":"Updated Author"}`, string(req.Body))
}

func TestBuildEscapesID(t *testing.T) {
	req, err := Build(KindCategory, OpGet, Params{ID: "a/b c"})
	require.NoError(t, err)
	assert.Equal(t, "/category/a%2Fb%20c", req.Path)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(KindBook, OpGet, Params{})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = Build(KindBook, OpCreate, Params{Token: "tok"})
	assert.ErrorIs(t, err, ErrMissingBody)

	_, err = Build(KindCategory, OpDelete, Params{ID: "c1"})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = Build("author", OpList, Params{})
	assert.Error(t, err)

	_, err = Build(KindBook, "patch", Params{})
	assert.Error(t, err)
}

func TestBuildIsPure(t *testing.T) {
	params := Params{ID: "b1", Token: "tok"}
	r1, err1 := Build(KindBook, OpDelete, params)
	r2, err2 := Build(KindBook, OpDelete, params)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
	r1.Header.Set("X-Extra", "1")
	assert.Empty(t, r2.Header.Get("X-Extra"))
}

func TestBuildLogin(t *testing.T) {
	req, err := BuildLogin("", servicedef.Credentials{Email: "john.doe@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, DefaultLoginPath, req.Path)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"email":"john.doe@example.com","password":"password123"}`, string(req.Body))
	assert.True(t, req.Redact)
	assert.Equal(t, "POST /user/login", req.String())
}

package fakecatalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = servicedef.Credentials{Email: "john.doe@example.com", Password: "password123"}

func do(t *testing.T, s *Service, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Service) string {
	w := do(t, s, "POST", "/user/login", "", `{"email":"john.doe@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp servicedef.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin(t *testing.T) {
	s := New(creds)
	login(t, s)

	w := do(t, s, "POST", "/user/login", "", `{"email":"john.doe@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMutationsRequireValidToken(t *testing.T) {
	s := New(creds)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, "POST", "/category", "", `{"title":"a"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, "POST", "/category", "not-a-jwt", `{"title":"a"}`).Code)

	other := New(creds)
	foreignToken := login(t, other)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, "POST", "/category", foreignToken, `{"title":"a"}`).Code)

	assert.Equal(t, http.StatusOK, do(t, s, "POST", "/category", login(t, s), `{"title":"a"}`).Code)
}

func TestSeedData(t *testing.T) {
	s := New(creds)
	books := s.Books()
	require.Len(t, books, 3)
	gatsby, found := servicedef.FindBookByTitle(books, "The Great Gatsby")
	require.True(t, found)
	assert.Equal(t, "F. Scott Fitzgerald", gatsby.Author)
	assert.Equal(t, "Classics", gatsby.Category.Title)
}

func TestBookReadEmbedsCategory(t *testing.T) {
	s := New(creds)
	book := s.Books()[0]
	w := do(t, s, "GET", "/book/"+book.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	category, ok := raw["category"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, book.Category.ID, category["_id"])
}

func TestMissingEntityIsNull(t *testing.T) {
	s := New(creds)
	for _, path := range []string{"/book/nope", "/category/nope"} {
		w := do(t, s, "GET", path, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
	}
}

func TestPartialBookUpdate(t *testing.T) {
	s := New(creds)
	token := login(t, s)
	book := s.Books()[1]
	w := do(t, s, "PUT", "/book/"+book.ID, token, `{"title":"New","author":"Someone"}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := s.Books()[1]
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Someone", updated.Author)
	assert.Equal(t, book.Description, updated.Description)
	assert.Equal(t, book.Price, updated.Price)
	assert.Equal(t, book.Category, updated.Category)
}

func TestDelete(t *testing.T) {
	s := New(creds)
	token := login(t, s)
	book := s.Books()[2]
	assert.Equal(t, http.StatusOK, do(t, s, "DELETE", "/book/"+book.ID, token, "").Code)
	assert.Len(t, s.Books(), 2)
	assert.Equal(t, "null", strings.TrimSpace(do(t, s, "GET", "/book/"+book.ID, "", "").Body.String()))
}

func TestFaults(t *testing.T) {
	s := New(creds)
	token := login(t, s)
	s.SetFaults(Faults{MalformedLists: true, DropFields: []string{"title"}})

	var list []servicedef.Book
	assert.Error(t, json.Unmarshal(do(t, s, "GET", "/book", "", "").Body.Bytes(), &list))

	book := s.Books()[0]
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(do(t, s, "GET", "/book/"+book.ID, "", "").Body.Bytes(), &raw))
	assert.NotContains(t, raw, "title")
	assert.Contains(t, raw, "author")

	s.SetFaults(Faults{StaleAfterDelete: true})
	do(t, s, "DELETE", "/book/"+book.ID, token, "")
	assert.Len(t, s.Books(), 3)
}

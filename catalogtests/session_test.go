package catalogtests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCredentials = servicedef.Credentials{Email: "john.doe@example.com", Password: "password123"}

func authenticateWith(t *testing.T, handler http.Handler, loginPath string) (Session, error) {
	var session Session
	var err error
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		h, herr := harness.NewTestHarness(server.URL, 0, nil)
		require.NoError(t, herr)
		session, err = Authenticate(context.Background(), h, loginPath, testCredentials, nil)
		if err == nil {
			assert.Equal(t, server.URL, session.BaseURL)
		}
	})
	return session, err
}

func TestAuthenticateSendsCredentialsToLoginPath(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "abc"}, nil),
	)
	session, err := authenticateWith(t, handler, "/auth/login")
	require.NoError(t, err)
	assert.Equal(t, "abc", session.Token)

	received := <-requestsCh
	assert.Equal(t, "POST", received.Request.Method)
	assert.Equal(t, "/auth/login", received.Request.URL.Path)
	assert.Empty(t, received.Request.Header.Get("Authorization"))
	assert.JSONEq(t, `{"email":"john.doe@example.com","password":"password123"}`, string(received.Body))
}

func TestAuthenticateUsesDefaultLoginPath(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "abc"}, nil),
	)
	_, err := authenticateWith(t, handler, "")
	require.NoError(t, err)
	assert.Equal(t, "/user/login", (<-requestsCh).Request.URL.Path)
}

func TestAuthenticateAcceptsAccessToken(t *testing.T) {
	session, err := authenticateWith(t,
		httphelpers.HandlerWithJSONResponse(map[string]string{"accessToken": "xyz"}, nil), "")
	require.NoError(t, err)
	assert.Equal(t, "xyz", session.Token)
}

func TestAuthenticateFailures(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		_, err := authenticateWith(t, httphelpers.HandlerWithStatus(401), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := authenticateWith(t, httphelpers.HandlerWithJSONResponse(map[string]string{"token": ""}, nil), "")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("no token field", func(t *testing.T) {
		_, err := authenticateWith(t, httphelpers.HandlerWithJSONResponse(map[string]string{"user": "john"}, nil), "")
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := authenticateWith(t, httphelpers.HandlerWithResponse(200, nil, []byte(`{"token":`)), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
		url := server.URL
		server.Close()
		h, err := harness.NewTestHarness(url, 0, nil)
		require.NoError(t, err)
		_, err = Authenticate(context.Background(), h, "", testCredentials, nil)
		assert.Error(t, err)
	})
}

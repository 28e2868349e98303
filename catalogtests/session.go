package catalogtests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/catalogqa/catalog-contract-tests/catalogapi"
	"github.com/catalogqa/catalog-contract-tests/framework"
	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/servicedef"
)

var ErrNoToken = errors.New("login response did not contain a token")

// Executor sends requests to the service under test. *harness.TestHarness implements it.
type Executor interface {
	BaseURL() string
	Do(ctx context.Context, r harness.Request, debugLogger framework.Logger) (harness.Response, error)
}

// Session is an authenticated connection to the service. It is created once per fixture
// and passed to each scenario; it never changes after login.
type Session struct {
	BaseURL string
	Token   string
}

// Authenticate logs in with the given credentials. Any failure to obtain a non-empty token
// is returned as an error, and no session is created.
func Authenticate(
	ctx context.Context,
	executor Executor,
	loginPath string,
	credentials servicedef.Credentials,
	debugLogger framework.Logger,
) (Session, error) {
	req, err := catalogapi.BuildLogin(loginPath, credentials)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	resp, err := executor.Do(ctx, req, debugLogger)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("login as %s returned status %d: %s",
			credentials.Email, resp.StatusCode, resp.BodyPreview())
	}
	var body servicedef.LoginResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return Session{}, fmt.Errorf("login response was not valid JSON (%s): %w", resp.BodyPreview(), err)
	}
	token := body.BearerToken()
	if token == "" {
		return Session{}, fmt.Errorf("login as %s: %w", credentials.Email, ErrNoToken)
	}
	return Session{BaseURL: executor.BaseURL(), Token: token}, nil
}

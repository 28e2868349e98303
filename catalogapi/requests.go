// Package catalogapi builds the HTTP requests for every operation of the book catalog
// service. Building a request does no I/O; the framework/harness package executes them.
package catalogapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/servicedef"
)

// Kind is a resource kind of the catalog service.
type Kind string

const (
	KindCategory Kind = "category"
	KindBook     Kind = "book"
)

// Operation is one of the CRUD operations the service supports for every kind.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

const DefaultLoginPath = "/user/login"

var (
	ErrMissingID    = errors.New("operation requires a resource id")
	ErrMissingBody  = errors.New("operation requires a request body")
	ErrMissingToken = errors.New("operation requires a bearer token")
)

// Request is a fully specified request, relative to the service's base URL.
type Request = harness.Request

// Params are the operation-specific inputs to Build. Body may be anything that
// encoding/json can marshal, including an ldvalue.Value.
type Params struct {
	ID    string
	Body  interface{}
	Token string
}

type opInfo struct {
	method     string
	needsID    bool
	needsBody  bool
	needsToken bool
}

var operations = map[Operation]opInfo{
	OpList:   {method: http.MethodGet},
	OpGet:    {method: http.MethodGet, needsID: true},
	OpCreate: {method: http.MethodPost, needsBody: true, needsToken: true},
	OpUpdate: {method: http.MethodPut, needsID: true, needsBody: true, needsToken: true},
	OpDelete: {method: http.MethodDelete, needsID: true, needsToken: true},
}

// Build returns the request for performing op on a resource of the given kind.
func Build(kind Kind, op Operation, params Params) (Request, error) {
	if kind != KindCategory && kind != KindBook {
		return Request{}, fmt.Errorf("unknown resource kind %q", kind)
	}
	info, ok := operations[op]
	if !ok {
		return Request{}, fmt.Errorf("unknown operation %q", op)
	}
	describe := func(err error) error {
		return fmt.Errorf("%s %s: %w", op, kind, err)
	}
	if info.needsID && params.ID == "" {
		return Request{}, describe(ErrMissingID)
	}
	if info.needsBody && params.Body == nil {
		return Request{}, describe(ErrMissingBody)
	}
	if info.needsToken && params.Token == "" {
		return Request{}, describe(ErrMissingToken)
	}

	req := Request{
		Method: info.method,
		Path:   ResourcePath(kind, params.ID),
		Header: make(http.Header),
	}
	if info.needsToken {
		req.Header.Set("Authorization", "Bearer "+params.Token)
	}
	if info.needsBody {
		data, err := json.Marshal(params.Body)
		if err != nil {
			return Request{}, describe(fmt.Errorf("cannot encode body: %w", err))
		}
		req.Body = data
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// ResourcePath returns /kind for an empty id, or /kind/{id}.
func ResourcePath(kind Kind, id string) string {
	if id == "" {
		return "/" + string(kind)
	}
	return "/" + string(kind) + "/" + url.PathEscape(id)
}

// BuildLogin returns the unauthenticated request that exchanges credentials for a token.
func BuildLogin(path string, credentials servicedef.Credentials) (Request, error) {
	if path == "" {
		path = DefaultLoginPath
	}
	data, err := json.Marshal(credentials)
	if err != nil {
		return Request{}, err
	}
	req := Request{
		Method: http.MethodPost,
		Path:   path,
		Header: make(http.Header),
		Body:   data,
		Redact: true,
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

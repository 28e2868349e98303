// Package servicedef contains the JSON representations of the book catalog service's
// resources, as the harness sends and receives them.
package servicedef

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// LoginResponse is the body of a successful login. Some deployments of the service
// call the token field accessToken.
type LoginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken,omitempty"`
}

// BearerToken returns whichever token field was set.
func (r LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

type Category struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// CategoryParams is the body of a category create or update request.
type CategoryParams struct {
	Title string `json:"title"`
}

// Book is a book as returned by the service. On read, the category is embedded.
type Book struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Pages       float64     `json:"pages"`
	Category    CategoryRef `json:"category"`
}

// CreateBookParams is the body of a book create request. Category is a bare id.
type CreateBookParams struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Pages       int     `json:"pages"`
	Category    string  `json:"category"`
}

// CategoryRef is a book's reference to its category. The service sends an embedded
// category object, but a bare id string is also accepted.
type CategoryRef struct {
	ID    string
	Title string
}

func (c CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(Category{ID: c.ID, Title: c.Title})
}

func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = CategoryRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = CategoryRef{ID: id}
		return nil
	case len(data) > 0 && data[0] == '{':
		var cat Category
		if err := json.Unmarshal(data, &cat); err != nil {
			return err
		}
		*c = CategoryRef{ID: cat.ID, Title: cat.Title}
		return nil
	}
	return fmt.Errorf("category must be an object or an id string, got %s", string(data))
}

// FindBookByTitle returns the first book with exactly the given title.
func FindBookByTitle(books []Book, title string) (Book, bool) {
	for _, b := range books {
		if b.Title == title {
			return b, true
		}
	}
	return Book{}, false
}

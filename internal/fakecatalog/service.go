// Package fakecatalog is an in-memory book catalog service used to test the contract tests
// themselves. It behaves like a correct service by default; Faults make it misbehave in
// specific ways so that tests can check that each kind of misbehavior is detected.
package fakecatalog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const tokenLifetime = time.Hour

// Faults are deliberate deviations from the service contract.
type Faults struct {
	// RejectLogin makes every login fail with 401.
	RejectLogin bool
	// EmptyToken makes login succeed with an empty token.
	EmptyToken bool
	// DropFields removes these keys from every single-entity response.
	DropFields []string
	// StaleAfterDelete makes delete report success without removing anything.
	StaleAfterDelete bool
	// MalformedLists makes the list endpoints return a body that is not valid JSON.
	MalformedLists bool
	// ClobberOnUpdate makes a book update also reset the fields it did not mention.
	ClobberOnUpdate bool
	// OmitCreatedID leaves _id out of create responses, while still storing the entity.
	OmitCreatedID bool
}

type storedBook struct {
	id          string
	title       string
	author      string
	description string
	price       float64
	pages       int
	categoryID  string
}

// Service is the fake catalog. It implements http.Handler.
type Service struct {
	mu            sync.Mutex
	credentials   servicedef.Credentials
	secret        []byte
	faults        Faults
	categories    map[string]servicedef.Category
	categoryOrder []string
	books         map[string]storedBook
	bookOrder     []string
	router        *httprouter.Router
}

// SeedBook describes a book that exists when the service starts.
type SeedBook struct {
	Title       string
	Author      string
	Description string
	Price       float64
	Pages       int
}

// DefaultSeedBooks are the books the contract tests expect to find.
var DefaultSeedBooks = []SeedBook{
	{"The Great Gatsby", "F. Scott Fitzgerald", "A novel of the Jazz Age", 10.99, 180},
	{"The Catcher in the Rye", "J. D. Salinger", "A story of teenage alienation", 8.99, 277},
	{"To Kill a Mockingbird", "Harper Lee", "A novel about racial injustice", 12.5, 281},
}

// New returns a service that accepts the given credentials and contains one category
// holding the default seed books.
func New(credentials servicedef.Credentials) *Service {
	s := &Service{
		credentials: credentials,
		secret:      []byte(newID()),
		categories:  make(map[string]servicedef.Category),
		books:       make(map[string]storedBook),
	}
	categoryID := s.AddCategory("Classics")
	for _, b := range DefaultSeedBooks {
		s.AddBook(b, categoryID)
	}

	router := httprouter.New()
	router.GET("/", s.status)
	router.POST("/user/login", s.login)
	router.GET("/category", s.listCategories)
	router.POST("/category", s.authorized(s.createCategory))
	router.GET("/category/:id", s.getCategory)
	router.PUT("/category/:id", s.authorized(s.updateCategory))
	router.DELETE("/category/:id", s.authorized(s.deleteCategory))
	router.GET("/book", s.listBooks)
	router.POST("/book", s.authorized(s.createBook))
	router.GET("/book/:id", s.getBook)
	router.PUT("/book/:id", s.authorized(s.updateBook))
	router.DELETE("/book/:id", s.authorized(s.deleteBook))
	s.router = router
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetFaults replaces the current faults.
func (s *Service) SetFaults(f Faults) {
	s.mu.Lock()
	s.faults = f
	s.mu.Unlock()
}

// AddCategory stores a category directly and returns its id.
func (s *Service) AddCategory(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID()
	s.categories[id] = servicedef.Category{ID: id, Title: title}
	s.categoryOrder = append(s.categoryOrder, id)
	return id
}

// AddBook stores a book directly and returns its id.
func (s *Service) AddBook(b SeedBook, categoryID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID()
	s.books[id] = storedBook{
		id:          id,
		title:       b.Title,
		author:      b.Author,
		description: b.Description,
		price:       b.Price,
		pages:       b.Pages,
		categoryID:  categoryID,
	}
	s.bookOrder = append(s.bookOrder, id)
	return id
}

// RemoveAllCategories deletes every category, leaving books with dangling references.
func (s *Service) RemoveAllCategories() {
	s.mu.Lock()
	s.categories = make(map[string]servicedef.Category)
	s.categoryOrder = nil
	s.mu.Unlock()
}

// Books returns a snapshot of all books, as the service would return them.
func (s *Service) Books() []servicedef.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]servicedef.Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		ret = append(ret, s.bookView(s.books[id]))
	}
	return ret
}

// Categories returns a snapshot of all categories.
func (s *Service) Categories() []servicedef.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]servicedef.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		ret = append(ret, s.categories[id])
	}
	return ret
}

func newID() string {
	id, _ := uuid.NewV4()
	return strings.ReplaceAll(id.String(), "-", "")
}

func (s *Service) bookView(b storedBook) servicedef.Book {
	category := servicedef.CategoryRef{ID: b.categoryID}
	if c, ok := s.categories[b.categoryID]; ok {
		category.Title = c.Title
	}
	return servicedef.Book{
		ID:          b.id,
		Title:       b.title,
		Author:      b.author,
		Description: b.description,
		Price:       b.price,
		Pages:       float64(b.pages),
		Category:    category,
	}
}

func (s *Service) issueToken(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) validateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func (s *Service) authorized(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := s.validateToken(strings.TrimPrefix(auth, "Bearer ")); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r, ps)
	}
}

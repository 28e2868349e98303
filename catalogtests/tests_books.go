package catalogtests

import (
	"github.com/catalogqa/catalog-contract-tests/catalogapi"
	"github.com/catalogqa/catalog-contract-tests/servicedef"
	"github.com/catalogqa/catalog-contract-tests/validation"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
)

var bookFields = []string{"title", "author", "description", "price", "pages", "category"}

func listBooksExpectations() validation.Expectations {
	return validation.Expectations{Status: 200, Shape: validation.ShapeArray}
}

// requireBookList lists all books, ending the test if the list cannot be read.
func requireBookList(t *T, step string) []servicedef.Book {
	resp := t.Call(step, catalogapi.KindBook, catalogapi.OpList, catalogapi.Params{})
	t.RequireCheck(step, resp, listBooksExpectations())
	var books []servicedef.Book
	t.RequireDecode(step, resp, &books)
	return books
}

// requireSeededBook finds a book that must already exist in the service.
func requireSeededBook(t *T, title string) servicedef.Book {
	books := requireBookList(t, "list books")
	book, found := servicedef.FindBookByTitle(books, title)
	t.RequirePrecondition(found, "the book %q was not found among %d books", title, len(books))
	t.RequirePrecondition(book.ID != "", "the book %q has no _id", title)
	return book
}

func DoGetAllBooksTest(t *T, session Session) {
	resp := t.Call("list books", catalogapi.KindBook, catalogapi.OpList, catalogapi.Params{})
	t.Check("list books", resp, validation.Expectations{
		Status:              200,
		Shape:               validation.ShapeArray,
		MinCount:            1,
		EachElementNonEmpty: bookFields,
	})
}

func DoGetBookByTitleTest(t *T, session Session) {
	expected := t.Fixtures().ExistingBook
	book := requireSeededBook(t, expected.Title)
	assert.Equal(t, expected.Title, book.Title, "title of the matched book")
	assert.Equal(t, expected.Author, book.Author, "author of %q", expected.Title)
}

// DoAddBookTest creates a book in the first listed category and checks that every submitted
// field, including the category reference, reads back unchanged.
func DoAddBookTest(t *T, session Session) {
	categoriesResp := t.Call("list categories", catalogapi.KindCategory, catalogapi.OpList, catalogapi.Params{})
	t.RequireCheck("list categories", categoriesResp, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeArray,
	})
	var categories []servicedef.Category
	t.RequireDecode("list categories", categoriesResp, &categories)
	t.RequirePrecondition(len(categories) > 0, "the service has no categories to add a book to")
	categoryID := categories[0].ID
	t.RequirePrecondition(categoryID != "", "the first category has no _id")

	before := requireBookList(t, "list books before create")

	template := t.Fixtures().NewBook
	params := servicedef.CreateBookParams{
		Title:       t.NewTitle("bookTitle"),
		Author:      template.Author,
		Description: template.Description,
		Price:       template.Price,
		Pages:       template.Pages,
		Category:    categoryID,
	}
	created := t.Call("create book", catalogapi.KindBook, catalogapi.OpCreate, catalogapi.Params{
		Body:  params,
		Token: session.Token,
	})
	t.RequireCheck("create book", created, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
	})
	id := t.RequireCreatedID("create book", created)

	got := t.Call("get book", catalogapi.KindBook, catalogapi.OpGet, catalogapi.Params{ID: id})
	t.Check("get book", got, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
		Fields: []validation.Field{
			validation.EqualsString("_id", id),
			validation.EqualsString("title", params.Title),
			validation.EqualsString("author", params.Author),
			validation.EqualsString("description", params.Description),
			validation.EqualsNumber("price", params.Price),
			validation.Equals("pages", ldvalue.Int(params.Pages)),
			validation.EqualsString("category._id", categoryID),
		},
	})

	after := t.Call("list books after create", catalogapi.KindBook, catalogapi.OpList, catalogapi.Params{})
	t.Check("list books after create", after, validation.Expectations{
		Status:   200,
		Shape:    validation.ShapeArray,
		Count:    ldvalue.NewOptionalInt(len(before) + 1),
		Contains: []validation.Field{validation.EqualsString("_id", id)},
	})
}

// DoUpdateBookTest changes the title and author of a seeded book and checks that nothing
// else about it changed.
func DoUpdateBookTest(t *T, session Session) {
	fixtures := t.Fixtures()
	original := requireSeededBook(t, fixtures.BookToUpdate)

	changes := ldvalue.ObjectBuild().
		Set("title", ldvalue.String(fixtures.Update.Title)).
		Set("author", ldvalue.String(fixtures.Update.Author)).
		Build()
	updated := t.Call("update book", catalogapi.KindBook, catalogapi.OpUpdate, catalogapi.Params{
		ID:    original.ID,
		Body:  changes,
		Token: session.Token,
	})
	t.Check("update book", updated, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
		Fields: []validation.Field{
			validation.EqualsString("title", fixtures.Update.Title),
			validation.EqualsString("author", fixtures.Update.Author),
		},
	})

	got := t.Call("get updated book", catalogapi.KindBook, catalogapi.OpGet, catalogapi.Params{ID: original.ID})
	fields := []validation.Field{
		validation.EqualsString("_id", original.ID),
		validation.EqualsString("title", fixtures.Update.Title),
		validation.EqualsString("author", fixtures.Update.Author),
		validation.EqualsString("description", original.Description),
		validation.EqualsNumber("price", original.Price),
		validation.EqualsNumber("pages", original.Pages),
	}
	if original.Category.ID != "" {
		fields = append(fields, validation.EqualsString("category._id", original.Category.ID))
	}
	t.Check("get updated book", got, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
		Fields: fields,
	})
}

func DoDeleteBookTest(t *T, session Session) {
	book := requireSeededBook(t, t.Fixtures().BookToDelete)

	deleted := t.Call("delete book", catalogapi.KindBook, catalogapi.OpDelete, catalogapi.Params{
		ID:    book.ID,
		Token: session.Token,
	})
	t.Check("delete book", deleted, validation.Expectations{Status: 200})

	gone := t.Call("get deleted book", catalogapi.KindBook, catalogapi.OpGet, catalogapi.Params{ID: book.ID})
	t.Check("get deleted book", gone, validation.Expectations{Shape: validation.ShapeNotFound})
}

package catalogtests

import (
	"github.com/catalogqa/catalog-contract-tests/catalogapi"
	"github.com/catalogqa/catalog-contract-tests/servicedef"
	"github.com/catalogqa/catalog-contract-tests/validation"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DoCategoryLifecycleTest creates a category, reads it back through the list and get
// operations, renames it, deletes it, and checks that it is gone.
func DoCategoryLifecycleTest(t *T, session Session) {
	baseline := t.Call("list categories before create", catalogapi.KindCategory, catalogapi.OpList, catalogapi.Params{})
	t.RequireCheck("list categories before create", baseline, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeArray,
	})
	var before []servicedef.Category
	t.RequireDecode("list categories before create", baseline, &before)

	title := t.NewTitle("categoryTitle")
	created := t.Call("create category", catalogapi.KindCategory, catalogapi.OpCreate, catalogapi.Params{
		Body:  servicedef.CategoryParams{Title: title},
		Token: session.Token,
	})
	t.RequireCheck("create category", created, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
	})
	id := t.RequireCreatedID("create category", created)

	list := t.Call("list categories", catalogapi.KindCategory, catalogapi.OpList, catalogapi.Params{})
	t.Check("list categories", list, validation.Expectations{
		Status:   200,
		Shape:    validation.ShapeArray,
		MinCount: 1,
		Count:    ldvalue.NewOptionalInt(len(before) + 1),
		Contains: []validation.Field{
			validation.EqualsString("_id", id),
			validation.EqualsString("title", title),
		},
	})

	got := t.Call("get category", catalogapi.KindCategory, catalogapi.OpGet, catalogapi.Params{ID: id})
	t.Check("get category", got, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
		Fields: []validation.Field{
			validation.EqualsString("_id", id),
			validation.EqualsString("title", title),
		},
	})

	updatedTitle := title + "_updated"
	updated := t.Call("update category", catalogapi.KindCategory, catalogapi.OpUpdate, catalogapi.Params{
		ID:    id,
		Body:  servicedef.CategoryParams{Title: updatedTitle},
		Token: session.Token,
	})
	t.RequireCheck("update category", updated, validation.Expectations{Status: 200})

	got = t.Call("get updated category", catalogapi.KindCategory, catalogapi.OpGet, catalogapi.Params{ID: id})
	t.Check("get updated category", got, validation.Expectations{
		Status: 200,
		Shape:  validation.ShapeObject,
		Fields: []validation.Field{
			validation.EqualsString("_id", id),
			validation.EqualsString("title", updatedTitle),
		},
	})

	deleted := t.Call("delete category", catalogapi.KindCategory, catalogapi.OpDelete, catalogapi.Params{ID: id, Token: session.Token})
	t.RequireCheck("delete category", deleted, validation.Expectations{Status: 200})

	gone := t.Call("get deleted category", catalogapi.KindCategory, catalogapi.OpGet, catalogapi.Params{ID: id})
	t.Check("get deleted category", gone, validation.Expectations{Shape: validation.ShapeNotFound})
}

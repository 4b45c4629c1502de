package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedapi/typedapi/pkg/validator"
)

type searchQuery struct {
	Limit  int      `json:"limit" validate:"min=1,max=100"`
	Q      string   `json:"q" validate:"required,minLength=2,maxLength=64"`
	Tags   []string `json:"tags" validate:"maxItems=5"`
	Email  string   `json:"email" validate:"email"`
	Cursor *string  `json:"cursor" validate:"minLength=4"`
}

func TestStruct_Valid(t *testing.T) {
	cursor := "abcd"
	err := validator.Struct(searchQuery{
		Limit:  10,
		Q:      "go",
		Tags:   []string{"a", "b"},
		Email:  "alice@example.com",
		Cursor: &cursor,
	})
	assert.NoError(t, err)
}

func TestStruct_Minimum(t *testing.T) {
	err := validator.Struct(searchQuery{Limit: 0, Q: "go", Email: "alice@example.com"})
	require.Error(t, err)

	errs := validator.Extract(err)
	require.True(t, errs.Has("limit"))
	found := errs.Get("limit")
	require.Len(t, found, 1)
	assert.Contains(t, found[0], "greater than or equal to 1")

	var rule string
	for _, e := range errs {
		if e.Path == "limit" {
			rule = e.Rule
		}
	}
	assert.Equal(t, "minimum", rule)
}

func TestStruct_Required(t *testing.T) {
	err := validator.Struct(searchQuery{Limit: 5, Email: "alice@example.com"})
	require.Error(t, err)
	assert.True(t, validator.Extract(err).Has("q"))
}

func TestStruct_Email(t *testing.T) {
	err := validator.Struct(searchQuery{Limit: 5, Q: "go", Email: "not-an-email"})
	require.Error(t, err)

	errs := validator.Extract(err)
	require.True(t, errs.Has("email"))
}

func TestStruct_NilOptionalSkipsRules(t *testing.T) {
	// Cursor is nil: minLength must not fire.
	err := validator.Struct(searchQuery{Limit: 5, Q: "go", Email: "a@b.co"})
	if err != nil {
		assert.False(t, validator.Extract(err).Has("cursor"))
	}
}

func TestStruct_MaxItems(t *testing.T) {
	err := validator.Struct(searchQuery{
		Limit: 5, Q: "go", Email: "a@b.co",
		Tags: []string{"1", "2", "3", "4", "5", "6"},
	})
	require.Error(t, err)
	assert.True(t, validator.Extract(err).Has("tags"))
}

type nestedOwner struct {
	Name  string       `json:"name" validate:"required"`
	Inner nestedTarget `json:"inner"`
}

type nestedTarget struct {
	Code string `json:"code" validate:"pattern=^[A-Z]{3}$"`
}

func TestStruct_NestedPaths(t *testing.T) {
	err := validator.Struct(nestedOwner{Name: "x", Inner: nestedTarget{Code: "nope"}})
	require.Error(t, err)
	assert.True(t, validator.Extract(err).Has("inner.code"))
}

func TestApply_CollectsAllFailures(t *testing.T) {
	err := validator.Apply(
		validator.RequiredString("name", ""),
		validator.Min("age", 12, 18),
		validator.MaxLenString("bio", "ok", 10),
	)
	require.Error(t, err)

	errs := validator.Extract(err)
	assert.Len(t, errs, 2)
	assert.True(t, errs.Has("name"))
	assert.True(t, errs.Has("age"))
}

func TestExtract_NonValidationError(t *testing.T) {
	assert.Nil(t, validator.Extract(assert.AnError))
	assert.Nil(t, validator.Extract(nil))
}

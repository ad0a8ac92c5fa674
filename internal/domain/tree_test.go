package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	tree := BuildTree([]CategoryInfo{
		{CategoryID: "332", Name: "Informational Book", Count: 40},
		{CategoryID: "332.124", Name: "Train"},
		{CategoryID: "332.124.316", Name: "4.5V"},
		{CategoryID: "332.124.317", Name: "9V"},
		{CategoryID: "5", Name: "Brick"},
	})

	require.Len(t, tree, 6)
	assert.Equal(t, []string{"332", "5"}, tree.TopLevelIDs())

	book := tree["332"]
	assert.Equal(t, RootID, book.ParentID)
	assert.False(t, book.HasParent())
	assert.Equal(t, []string{"332.124"}, book.ChildrenIDs)
	assert.False(t, book.IsLeaf)
	assert.Equal(t, 40, book.Count)

	train := tree["332.124"]
	assert.Equal(t, "332", train.ParentID)
	assert.True(t, train.HasParent())
	assert.Equal(t, []string{"332.124.316", "332.124.317"}, train.ChildrenIDs)

	assert.True(t, tree["332.124.316"].IsLeaf)
	assert.True(t, tree["5"].IsLeaf)
	assert.Empty(t, tree["5"].ChildrenIDs)
}

func TestBuildTree_MissingParentAttachesToAncestor(t *testing.T) {
	tree := BuildTree([]CategoryInfo{
		{CategoryID: "1"},
		{CategoryID: "1.2.3"},
		{CategoryID: "9.8"},
	})

	assert.Equal(t, "1", tree["1.2.3"].ParentID)
	assert.Equal(t, RootID, tree["9.8"].ParentID)
	assert.Equal(t, []string{"1", "9.8"}, tree.TopLevelIDs())
}

func TestBuildTree_SkipsDuplicatesAndBlanks(t *testing.T) {
	tree := BuildTree([]CategoryInfo{
		{CategoryID: "1", Name: "first"},
		{CategoryID: "1", Name: "second"},
		{CategoryID: "  "},
	})

	require.Len(t, tree, 2)
	assert.Equal(t, "first", tree["1"].Name)
}

func TestCategoryTreeMap_Clone(t *testing.T) {
	tree := BuildTree([]CategoryInfo{{CategoryID: "1"}, {CategoryID: "1.1"}})
	dup := tree.Clone()

	node := dup["1"]
	node.Checked = true
	dup["1"] = node
	delete(dup, "1.1")

	assert.False(t, tree["1"].Checked)
	assert.Contains(t, tree, "1.1")
	assert.Nil(t, CategoryTreeMap(nil).Clone())
}

func TestParseCategoryType(t *testing.T) {
	ct, err := ParseCategoryType(" p ")
	require.NoError(t, err)
	assert.Equal(t, CategoryTypePart, ct)
	assert.Equal(t, "Parts", ct.GetCategoryName())

	_, err = ParseCategoryType("X")
	assert.Error(t, err)
}

func TestSubcategoryHierarchy_DeepestCategoryID(t *testing.T) {
	h := SubcategoryHierarchy{
		Subcategories: []SubcategoryInfo{
			{Name: "Books", ID: "B"},
			{Name: "Informational Book", ID: "332"},
			{Name: "Train", ID: "332.124"},
			{Name: "4.5V", ID: ""},
		},
	}

	id, ok := h.DeepestCategoryID()
	require.True(t, ok)
	assert.Equal(t, "332.124", id)

	_, ok = SubcategoryHierarchy{Subcategories: []SubcategoryInfo{{ID: "B"}}}.DeepestCategoryID()
	assert.False(t, ok)
}

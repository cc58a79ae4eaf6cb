package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

type fakeCategoryStore struct {
	byID   map[int64]*models.Category
	nextID int64
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{byID: make(map[int64]*models.Category)}
}

func (f *fakeCategoryStore) GetAll() ([]models.Category, error) {
	out := make([]models.Category, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCategoryStore) GetByID(id int64) (*models.Category, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCategoryStore) Create(c *models.Category) error {
	f.nextID++
	c.ID = f.nextID
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeCategoryStore) Update(c *models.Category) error {
	if _, ok := f.byID[c.ID]; !ok {
		return utils.ErrCategoryNotFound
	}
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeCategoryStore) Delete(id int64) error {
	if _, ok := f.byID[id]; !ok {
		return utils.ErrCategoryNotFound
	}
	delete(f.byID, id)
	return nil
}

func mustCreate(t *testing.T, svc *CategoryService, name string, parentID *int64) *models.Category {
	t.Helper()
	c, err := svc.Create(name, "", parentID)
	require.NoError(t, err)
	return c
}

func TestCategoryLevels(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	root := mustCreate(t, svc, "Shoes", nil)
	mid := mustCreate(t, svc, "Men", &root.ID)
	leaf := mustCreate(t, svc, "Boots", &mid.ID)

	for _, tc := range []struct {
		category *models.Category
		level    int
	}{
		{root, 1},
		{mid, 2},
		{leaf, 3},
	} {
		level, err := svc.Level(tc.category)
		require.NoError(t, err)
		assert.Equal(t, tc.level, level)
	}

	path, err := svc.DisplayPath(leaf)
	require.NoError(t, err)
	assert.Equal(t, "Shoes / Men / Boots", path)
}

func TestCategoryDepthExceeded(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	root := mustCreate(t, svc, "Shoes", nil)
	mid := mustCreate(t, svc, "Men", &root.ID)
	leaf := mustCreate(t, svc, "Boots", &mid.ID)

	_, err := svc.Create("Winter", "", &leaf.ID)
	assert.ErrorIs(t, err, utils.ErrDepthExceeded)
}

func TestCategoryCycleDetected(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	root := mustCreate(t, svc, "Shoes", nil)
	child := mustCreate(t, svc, "Men", &root.ID)

	// A category cannot become its own parent.
	_, err := svc.Update(root.ID, "Shoes", "", &root.ID)
	assert.ErrorIs(t, err, utils.ErrCycleDetected)

	// Nor can it be re-parented under its own descendant.
	_, err = svc.Update(root.ID, "Shoes", "", &child.ID)
	assert.ErrorIs(t, err, utils.ErrCycleDetected)
}

func TestCategoryTree(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	shoes := mustCreate(t, svc, "Shoes", nil)
	men := mustCreate(t, svc, "Men", &shoes.ID)
	mustCreate(t, svc, "Boots", &men.ID)
	mustCreate(t, svc, "Women", &shoes.ID)
	mustCreate(t, svc, "Electronics", nil)

	tree, err := svc.Tree()
	require.NoError(t, err)
	require.Len(t, tree, 2)

	// Roots sorted by name.
	assert.Equal(t, "Electronics", tree[0].Name)
	assert.Equal(t, 1, tree[0].Level)
	assert.Empty(t, tree[0].Children)

	shoesNode := tree[1]
	require.Len(t, shoesNode.Children, 2)
	assert.Equal(t, "Men", shoesNode.Children[0].Name)
	assert.Equal(t, 2, shoesNode.Children[0].Level)
	require.Len(t, shoesNode.Children[0].Children, 1)
	assert.Equal(t, "Boots", shoesNode.Children[0].Children[0].Name)
	assert.Equal(t, 3, shoesNode.Children[0].Children[0].Level)
}

func TestCategorySlugDerivedFromName(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore())

	c := mustCreate(t, svc, "Home & Garden", nil)
	assert.Equal(t, "home-garden", c.Slug)
}

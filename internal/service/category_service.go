package service

import (
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// CategoryStore is the persistence surface the category service needs.
// Implemented by repository.CategoryRepository.
type CategoryStore interface {
	GetAll() ([]models.Category, error)
	GetByID(id int64) (*models.Category, error)
	Create(c *models.Category) error
	Update(c *models.Category) error
	Delete(id int64) error
}

// CategoryService owns hierarchy validation and tree assembly.
type CategoryService struct {
	store CategoryStore
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Tree returns every root category with its descendants nested to the
// maximum depth. All categories are loaded in one query and linked in
// memory, so the endpoint never issues per-node lookups.
func (s *CategoryService) Tree() ([]*models.CategoryNode, error) {
	categories, err := s.store.GetAll()
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*models.CategoryNode, len(categories))
	children := make(map[int64][]int64)
	var rootIDs []int64
	for _, c := range categories {
		nodes[c.ID] = &models.CategoryNode{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			Children: []*models.CategoryNode{},
		}
		if c.ParentID == nil {
			rootIDs = append(rootIDs, c.ID)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	// Breadth-first from the roots. Nodes deeper than MaxCategoryDepth are
	// unreachable through validated writes; the level guard keeps the walk
	// finite even if the data is corrupt.
	roots := make([]*models.CategoryNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		nodes[id].Level = 1
		roots = append(roots, nodes[id])
	}
	queue := append([]int64(nil), rootIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		parent := nodes[id]
		if parent.Level >= models.MaxCategoryDepth {
			continue
		}
		childIDs := children[id]
		sort.Slice(childIDs, func(i, j int) bool { return nodes[childIDs[i]].Name < nodes[childIDs[j]].Name })
		for _, cid := range childIDs {
			child := nodes[cid]
			child.Level = parent.Level + 1
			parent.Children = append(parent.Children, child)
			queue = append(queue, cid)
		}
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	return roots, nil
}

// Create validates the hierarchy and inserts a new category. An empty slug
// is derived from the name.
func (s *CategoryService) Create(name, slugValue string, parentID *int64) (*models.Category, error) {
	if slugValue == "" {
		slugValue = slug.Make(name)
	}
	if err := s.validateHierarchy(0, parentID); err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Slug: slugValue, ParentID: parentID}
	if err := s.store.Create(c); err != nil {
		return nil, err
	}
	log.Info().Int64("category_id", c.ID).Str("slug", c.Slug).Msg("category created")
	return c, nil
}

// Update re-validates the hierarchy for the new parent before persisting.
// Reassigning a category under one of its own descendants is rejected.
func (s *CategoryService) Update(id int64, name, slugValue string, parentID *int64) (*models.Category, error) {
	c, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if slugValue == "" {
		slugValue = slug.Make(name)
	}
	if err := s.validateHierarchy(id, parentID); err != nil {
		return nil, err
	}

	c.Name = name
	c.Slug = slugValue
	c.ParentID = parentID
	if err := s.store.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a category and its descendants. Categories still
// referenced by products block the delete at the storage boundary.
func (s *CategoryService) Delete(id int64) error {
	return s.store.Delete(id)
}

// Level computes a category's level (root = 1) by walking its ancestors.
// The walk carries the same guards as validateHierarchy so it terminates
// even on corrupt, cyclic data.
func (s *CategoryService) Level(c *models.Category) (int, error) {
	path, err := s.ancestorPath(c.ID, c.ParentID)
	if err != nil {
		return 0, err
	}
	return 1 + len(path), nil
}

// DisplayPath renders ancestor names root→self joined by " / ".
func (s *CategoryService) DisplayPath(c *models.Category) (string, error) {
	path, err := s.ancestorPath(c.ID, c.ParentID)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(path)+1)
	for i := len(path) - 1; i >= 0; i-- {
		names = append(names, path[i].Name)
	}
	names = append(names, c.Name)
	return strings.Join(names, " / "), nil
}

// validateHierarchy checks the ancestor chain a node would acquire under
// parentID. nodeID is 0 for a node not yet persisted. Fails with
// ErrCycleDetected when the walk revisits a node (including nodeID itself)
// and ErrDepthExceeded when the node would sit deeper than MaxCategoryDepth.
func (s *CategoryService) validateHierarchy(nodeID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}

	visited := map[int64]bool{}
	if nodeID != 0 {
		visited[nodeID] = true
	}

	depth := 1
	current := parentID
	for current != nil {
		if visited[*current] {
			return utils.ErrCycleDetected
		}
		visited[*current] = true
		depth++
		if depth > models.MaxCategoryDepth {
			return utils.ErrDepthExceeded
		}
		parent, err := s.store.GetByID(*current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

// ancestorPath returns the chain of ancestors nearest-first, guarding
// against cycles and unbounded depth.
func (s *CategoryService) ancestorPath(selfID int64, parentID *int64) ([]*models.Category, error) {
	visited := map[int64]bool{selfID: true}
	var path []*models.Category

	current := parentID
	for current != nil {
		if visited[*current] || len(path) >= models.MaxCategoryDepth {
			return nil, utils.ErrCycleDetected
		}
		visited[*current] = true
		parent, err := s.store.GetByID(*current)
		if err != nil {
			return nil, err
		}
		path = append(path, parent)
		current = parent.ParentID
	}
	return path, nil
}

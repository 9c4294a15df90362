package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"jecistore/internal/domain"
)

type CategoryRepo struct{ q sqlx.ExtContext }

func NewCategoryRepo(q sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{q: q} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id, name, slug, parent_id FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.q, &c, `SELECT id, name, slug, parent_id FROM categories WHERE slug = ?`, slug)
	return c, notFound(err)
}

func (r *CategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM categories WHERE id = ?`, id)
	return n > 0, err
}

// DescendantIDs returns rootID and every category below it. The walk is
// breadth-first and keeps a visited set, so a parent cycle terminates.
func (r *CategoryRepo) DescendantIDs(ctx context.Context, rootID int64) ([]int64, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	children := map[int64][]int64{}
	for _, c := range all {
		if c.ParentID.Valid {
			children[c.ParentID.Int64] = append(children[c.ParentID.Int64], c.ID)
		}
	}
	visited := map[int64]bool{rootID: true}
	out := []int64{rootID}
	queue := []int64{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}

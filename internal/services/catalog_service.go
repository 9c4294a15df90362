package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
	"jecistore/internal/validate"
)

type CatalogService struct {
	Cats           *repos.CategoryRepo
	Prods          *repos.ProductRepo
	Users          *repos.UserRepo
	PageSize       int
	SellerPageSize int
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, users *repos.UserRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Users: users, PageSize: 8, SellerPageSize: 10}
}

// ListQuery is the raw listing request as it arrives from the query string.
type ListQuery struct {
	Q           string
	MinPrice    string
	MaxPrice    string
	Category    string // slug; includes descendant categories
	StockStatus string
	Sort        string
	Page        int
}

type Page struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	PageSize int              `json:"page_size"`
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.Pages }

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

// CategoryTree groups categories under their top-level parents. A child whose
// parent is missing is listed at the top level.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]domain.CategoryNode, error) {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	children := map[int64][]domain.Category{}
	roots := []domain.Category{}
	for _, c := range cats {
		if c.ParentID.Valid {
			if _, ok := byID[c.ParentID.Int64]; ok {
				children[c.ParentID.Int64] = append(children[c.ParentID.Int64], c)
				continue
			}
		}
		roots = append(roots, c)
	}
	out := make([]domain.CategoryNode, 0, len(roots))
	for _, r := range roots {
		kids := children[r.ID]
		if kids == nil {
			kids = []domain.Category{}
		}
		out = append(out, domain.CategoryNode{Category: r, Children: kids})
	}
	return out, nil
}

func (s *CatalogService) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	return s.Prods.Featured(ctx, limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// ListProducts is the public catalog: only products with stock are shown.
func (s *CatalogService) ListProducts(ctx context.Context, q ListQuery) (Page, error) {
	f, err := s.filter(ctx, q)
	if err != nil {
		return Page{}, err
	}
	f.InStockOnly = true
	f.StockStatus = ""
	return s.page(ctx, f, q.Page, s.PageSize)
}

// SellerProducts lists the seller's own products, including sold-out ones.
func (s *CatalogService) SellerProducts(ctx context.Context, sellerID string, q ListQuery) (Page, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return Page{}, err
	}
	f, err := s.filter(ctx, q)
	if err != nil {
		return Page{}, err
	}
	f.SellerID = sellerID
	f.SellerView = true
	return s.page(ctx, f, q.Page, s.SellerPageSize)
}

func (s *CatalogService) filter(ctx context.Context, q ListQuery) (repos.ProductFilter, error) {
	f := repos.ProductFilter{Sort: q.Sort, StockStatus: q.StockStatus}
	if v, ok := validate.Q(q.Q); ok {
		f.Q = v
	}
	if d, ok := validate.Price(q.MinPrice); ok {
		f.MinPrice = &d
	}
	if d, ok := validate.Price(q.MaxPrice); ok {
		f.MaxPrice = &d
	}
	if strings.TrimSpace(q.Category) != "" {
		f.CategoryIDs = []int64{}
		slug, ok := validate.Slug(q.Category)
		if !ok {
			return f, nil
		}
		c, err := s.Cats.BySlug(ctx, slug)
		if errors.Is(err, domain.ErrNotFound) {
			return f, nil
		}
		if err != nil {
			return f, err
		}
		if f.CategoryIDs, err = s.Cats.DescendantIDs(ctx, c.ID); err != nil {
			return f, err
		}
	}
	return f, nil
}

// page clamps the requested page into [1, pages] before querying.
func (s *CatalogService) page(ctx context.Context, f repos.ProductFilter, page, size int) (Page, error) {
	if size <= 0 {
		size = 8
	}
	if page < 1 {
		page = 1
	}
	f.Limit, f.Offset = size, (page-1)*size
	items, total, err := s.Prods.Search(ctx, f)
	if err != nil {
		return Page{}, err
	}
	pages := max((total+size-1)/size, 1)
	if page > pages {
		page = pages
		f.Offset = (page - 1) * size
		if items, _, err = s.Prods.Search(ctx, f); err != nil {
			return Page{}, err
		}
	}
	return Page{Products: items, Total: total, Page: page, Pages: pages, PageSize: size}, nil
}

// ProductInput carries validated seller form values. CategoryID 0 means none.
type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	Stock        int
	CategoryID   int64
	TrackingCode string
	IsFeatured   bool
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (int64, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return 0, err
	}
	p := domain.Product{SellerID: sql.NullString{String: sellerID, Valid: true}}
	if err := s.apply(ctx, &p, in); err != nil {
		return 0, err
	}
	return s.Prods.Create(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, sellerID string, id int64, in ProductInput) (domain.Product, error) {
	p, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sellerID string, id int64) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	return s.Prods.Delete(ctx, id)
}

// SellerProduct returns one of the seller's products for editing.
func (s *CatalogService) SellerProduct(ctx context.Context, sellerID string, id int64) (domain.Product, error) {
	return s.owned(ctx, sellerID, id)
}

func (s *CatalogService) owned(ctx context.Context, sellerID string, id int64) (domain.Product, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.SellerID.Valid || p.SellerID.String != sellerID {
		return domain.Product{}, &domain.PermissionError{Resource: "product", ID: strconv.FormatInt(id, 10)}
	}
	return p, nil
}

func (s *CatalogService) requireSeller(ctx context.Context, userID string) error {
	if userID == "" {
		return &domain.PermissionError{Resource: "seller area", ID: ""}
	}
	prof, ok, err := s.Users.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !ok || !prof.IsSeller {
		return &domain.PermissionError{Resource: "seller area", ID: userID}
	}
	return nil
}

func (s *CatalogService) apply(ctx context.Context, p *domain.Product, in ProductInput) error {
	name, ok := validate.Text(in.Name, 200)
	if !ok {
		return &domain.ValidationError{Field: "name", Reason: "required, up to 200 characters"}
	}
	if in.Price.IsNegative() {
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if in.Stock < 0 {
		return &domain.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	tracking, ok := validate.TrackingCode(in.TrackingCode)
	if !ok {
		return &domain.ValidationError{Field: "tracking_code", Reason: "letters, digits, dash and underscore only"}
	}
	p.CategoryID = sql.NullInt64{}
	if in.CategoryID > 0 {
		exists, err := s.Cats.Exists(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return &domain.ValidationError{Field: "category", Reason: "unknown category"}
		}
		p.CategoryID = sql.NullInt64{Int64: in.CategoryID, Valid: true}
	}
	p.Name = name
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	p.TrackingCode = tracking
	p.IsFeatured = in.IsFeatured
	return nil
}

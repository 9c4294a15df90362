package handlers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"jecistore/internal/config"
	"jecistore/internal/repos"
	"jecistore/internal/services"
)

type Deps struct {
	Sessions *repos.SessionRepo
	Auth     *services.AuthService
	Cart     *services.CartService
	Catalog  *services.CatalogService

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	SellerHandler    *SellerHandler
	PageHandler      *PageHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, logger *zap.Logger) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := services.NewAuthService(db, logger)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, userRepo)
	catalogSvc.PageSize = cfg.PageSize
	catalogSvc.SellerPageSize = cfg.SellerPageSize
	invSvc := services.NewInventoryService(invRepo, logger)
	cartSvc := services.NewCartService(db, logger)
	checkoutSvc := services.NewCheckoutService(db, logger)
	orderSvc := services.NewOrderService(db, logger)

	return &Deps{
		Sessions: repos.NewSessionRepo(db),
		Auth:     authSvc,
		Cart:     cartSvc,
		Catalog:  catalogSvc,

		AuthHandler:      &AuthHandler{Auth: authSvc, Cart: cartSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Inv: invSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler: &OrderHandler{
			Cart:           cartSvc,
			Checkout:       checkoutSvc,
			Orders:         orderSvc,
			StoreName:      cfg.StoreName,
			WhatsAppNumber: cfg.WhatsAppNumber,
		},
		SellerHandler: &SellerHandler{Catalog: catalogSvc, Orders: orderSvc, Inv: invSvc},
		PageHandler:   &PageHandler{},
	}
}

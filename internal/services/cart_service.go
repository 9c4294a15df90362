package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jecistore/internal/domain"
	"jecistore/internal/repos"
)

type CartService struct {
	DB  *sqlx.DB
	Log *zap.Logger
}

func NewCartService(db *sqlx.DB, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{DB: db, Log: logger}
}

// Resolution is the outcome of resolving an actor's cart. AnonCartID is the
// anonymous cart reference the session holds afterwards; "" means none.
type Resolution struct {
	Cart       domain.Cart     `json:"cart"`
	Notices    []domain.Notice `json:"notices"`
	AnonCartID string          `json:"-"`
}

// CartView is a resolved cart with its priced lines.
type CartView struct {
	Resolution
	Lines []domain.CartLine `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

// ResolveCart returns the actor's cart. Authenticated actors get their identity
// cart, with any anonymous cart held by the session folded into it first.
func (s *CartService) ResolveCart(ctx context.Context, actor domain.ActorContext) (Resolution, error) {
	var res Resolution
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		res, err = s.resolve(ctx, tx, actor)
		return err
	})
	return res, err
}

func (s *CartService) resolve(ctx context.Context, tx *sqlx.Tx, actor domain.ActorContext) (Resolution, error) {
	carts := repos.NewCartRepo(tx)
	sessions := repos.NewSessionRepo(tx)

	if !actor.Authenticated() {
		if actor.SessionKey == "" {
			return Resolution{}, errors.New("resolve cart: actor has neither identity nor session")
		}
		if actor.AnonCartID != "" {
			c, err := carts.Anonymous(ctx, actor.AnonCartID, actor.SessionKey)
			if err == nil {
				return Resolution{Cart: c, Notices: []domain.Notice{}, AnonCartID: c.ID}, nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return Resolution{}, err
			}
		}
		c, err := carts.CreateAnonymous(ctx, actor.SessionKey)
		if err != nil {
			return Resolution{}, fmt.Errorf("create anonymous cart: %w", err)
		}
		if err := sessions.SetCartID(ctx, actor.SessionKey, c.ID); err != nil {
			return Resolution{}, err
		}
		return Resolution{Cart: c, Notices: []domain.Notice{}, AnonCartID: c.ID}, nil
	}

	cart, created, err := carts.EnsureForUser(ctx, actor.UserID)
	if err != nil {
		return Resolution{}, fmt.Errorf("ensure identity cart: %w", err)
	}
	if created {
		s.Log.Debug("cart.created", zap.String("user_id", actor.UserID), zap.String("cart_id", cart.ID))
	}
	res := Resolution{Cart: cart, Notices: []domain.Notice{}}
	if actor.AnonCartID == "" || actor.AnonCartID == cart.ID {
		return res, nil
	}

	anon, err := carts.Anonymous(ctx, actor.AnonCartID, actor.SessionKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// already merged or never existed; only the stale reference remains
	case err != nil:
		return Resolution{}, err
	default:
		notices, err := s.merge(ctx, carts, anon.ID, cart.ID)
		if err != nil {
			return Resolution{}, err
		}
		res.Notices = notices
	}
	if actor.SessionKey != "" {
		if err := sessions.SetCartID(ctx, actor.SessionKey, ""); err != nil {
			return Resolution{}, err
		}
	}
	return res, nil
}

// Count returns the number of lines in the actor's cart without creating or
// merging anything. An actor with no cart yet has zero.
func (s *CartService) Count(ctx context.Context, actor domain.ActorContext) (int, error) {
	carts := repos.NewCartRepo(s.DB)
	var (
		cart domain.Cart
		err  error
	)
	switch {
	case actor.Authenticated():
		cart, err = carts.ByUser(ctx, actor.UserID)
	case actor.AnonCartID != "":
		cart, err = carts.Anonymous(ctx, actor.AnonCartID, actor.SessionKey)
	default:
		return 0, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return carts.CountItems(ctx, cart.ID)
}

// merge folds every line of the anonymous cart into the identity cart, capped
// at the product's stock. Anonymous lines are always removed afterwards.
func (s *CartService) merge(ctx context.Context, carts *repos.CartRepo, anonID, cartID string) ([]domain.Notice, error) {
	lines, err := carts.Lines(ctx, anonID)
	if err != nil {
		return nil, err
	}
	notices := []domain.Notice{}
	moved := 0
	for _, l := range lines {
		existing := 0
		it, err := carts.ItemByProduct(ctx, cartID, l.ProductID)
		switch {
		case err == nil:
			existing = it.Quantity
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}

		added := min(l.Quantity, max(l.Stock-existing, 0))
		if added > 0 {
			if err := carts.AddQuantity(ctx, cartID, l.ProductID, added); err != nil {
				return nil, fmt.Errorf("merge product %d: %w", l.ProductID, err)
			}
			moved += added
		}
		switch dropped := l.Quantity - added; {
		case added == 0:
			notices = append(notices, domain.BlockedMigrationNotice(l.ProductID, l.ProductName, dropped))
		case dropped > 0:
			notices = append(notices, domain.PartialMigrationNotice(l.ProductID, l.ProductName, added, dropped))
		}
		if err := carts.DeleteItem(ctx, l.ItemID); err != nil {
			return nil, err
		}
	}

	left, err := carts.CountItems(ctx, anonID)
	if err != nil {
		return nil, err
	}
	if left == 0 {
		if err := carts.Delete(ctx, anonID); err != nil {
			return nil, err
		}
	}
	if err := carts.Touch(ctx, cartID); err != nil {
		return nil, err
	}
	s.Log.Info("cart.merge",
		zap.String("anon_cart_id", anonID),
		zap.String("cart_id", cartID),
		zap.Int("lines", len(lines)),
		zap.Int("units_moved", moved),
		zap.Int("notices", len(notices)),
	)
	return notices, nil
}

// AddItem adds qty units of a product, incrementing the existing line if any.
func (s *CartService) AddItem(ctx context.Context, actor domain.ActorContext, productID int64, qty int) (Resolution, error) {
	if qty <= 0 {
		return Resolution{}, &domain.InvalidQuantityError{Input: strconv.Itoa(qty)}
	}
	var res Resolution
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		if res, err = s.resolve(ctx, tx, actor); err != nil {
			return err
		}
		carts := repos.NewCartRepo(tx)
		p, err := repos.NewProductRepo(tx).Get(ctx, productID)
		if err != nil {
			return err
		}
		inCart := 0
		it, err := carts.ItemByProduct(ctx, res.Cart.ID, productID)
		switch {
		case err == nil:
			inCart = it.Quantity
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if inCart+qty > p.Stock {
			return &domain.InsufficientStockError{
				ProductID: p.ID, ProductName: p.Name,
				Available: p.Stock, Requested: qty, InCart: inCart,
			}
		}
		if err := carts.AddQuantity(ctx, res.Cart.ID, productID, qty); err != nil {
			return err
		}
		return carts.Touch(ctx, res.Cart.ID)
	})
	if err != nil {
		return Resolution{}, err
	}
	s.Log.Debug("cart.add", zap.String("cart_id", res.Cart.ID), zap.Int64("product_id", productID), zap.Int("qty", qty))
	return res, nil
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, actor domain.ActorContext, itemID int64, qty int) (Resolution, error) {
	if qty < 0 {
		return Resolution{}, &domain.InvalidQuantityError{Input: strconv.Itoa(qty)}
	}
	var res Resolution
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		if res, err = s.resolve(ctx, tx, actor); err != nil {
			return err
		}
		carts := repos.NewCartRepo(tx)
		it, err := s.ownedItem(ctx, carts, res.Cart.ID, itemID)
		if err != nil {
			return err
		}
		if qty == 0 {
			return carts.DeleteItem(ctx, it.ID)
		}
		p, err := repos.NewProductRepo(tx).Get(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if qty > p.Stock {
			return &domain.InsufficientStockError{
				ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: qty,
			}
		}
		if err := carts.SetQuantity(ctx, it.ID, qty); err != nil {
			return err
		}
		return carts.Touch(ctx, res.Cart.ID)
	})
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (s *CartService) RemoveItem(ctx context.Context, actor domain.ActorContext, itemID int64) (Resolution, error) {
	var res Resolution
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var err error
		if res, err = s.resolve(ctx, tx, actor); err != nil {
			return err
		}
		carts := repos.NewCartRepo(tx)
		it, err := s.ownedItem(ctx, carts, res.Cart.ID, itemID)
		if err != nil {
			return err
		}
		return carts.DeleteItem(ctx, it.ID)
	})
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (s *CartService) ownedItem(ctx context.Context, carts *repos.CartRepo, cartID string, itemID int64) (domain.CartItem, error) {
	it, err := carts.Item(ctx, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if it.CartID != cartID {
		s.Log.Warn("cart.item.foreign", zap.Int64("item_id", itemID), zap.String("cart_id", cartID))
		return domain.CartItem{}, &domain.PermissionError{Resource: "cart item", ID: strconv.FormatInt(itemID, 10)}
	}
	return it, nil
}

func (s *CartService) View(ctx context.Context, actor domain.ActorContext) (CartView, error) {
	var v CartView
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		res, err := s.resolve(ctx, tx, actor)
		if err != nil {
			return err
		}
		lines, err := repos.NewCartRepo(tx).Lines(ctx, res.Cart.ID)
		if err != nil {
			return err
		}
		v = CartView{Resolution: res, Lines: lines, Total: linesTotal(lines)}
		return nil
	})
	return v, err
}

func linesTotal(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

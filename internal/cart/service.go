package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db/models"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

// MaxQuantityPerLine caps how many units of one menu item a cart may hold.
const MaxQuantityPerLine = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type menuItemLoader interface {
	GetMenuItem(ctx context.Context, itemID uuid.UUID) (*models.MenuItem, error)
}

// Service exposes the per-user cart operations.
type Service interface {
	AddItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error)
	IncrementItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error)
	DecrementItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog menuItemLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, catalog menuItemLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("menu item loader required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

// View aggregates the cart lines plus the running total and the summed
// unit count across every line.
type View struct {
	Lines     []models.CartItem `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
}

// AddItem puts one unit of the menu item into the user's cart. When the line
// already exists the quantity is bumped instead, subject to the per-line cap.
func (s *service) AddItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	if err := validateIdentity(userID, menuItemID); err != nil {
		return nil, err
	}

	item, err := s.catalog.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not available")
	}

	var result *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLineForUpdate(ctx, userID, menuItemID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
			}
			created, err := repo.CreateLine(ctx, &models.CartItem{
				UserID:     userID,
				MenuItemID: menuItemID,
				ItemName:   item.Name,
				UnitPrice:  item.Price,
				Quantity:   1,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
			result = created
			return nil
		}
		bumped, err := s.bump(ctx, repo, line, 1)
		if err != nil {
			return err
		}
		result = bumped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IncrementItem raises the line quantity by one, capped at MaxQuantityPerLine.
func (s *service) IncrementItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	return s.adjust(ctx, userID, menuItemID, 1)
}

// DecrementItem lowers the line quantity by one but never below a single unit.
// Removing the last unit is an explicit RemoveItem call.
func (s *service) DecrementItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	return s.adjust(ctx, userID, menuItemID, -1)
}

func (s *service) adjust(ctx context.Context, userID, menuItemID uuid.UUID, delta int) (*models.CartItem, error) {
	if err := validateIdentity(userID, menuItemID); err != nil {
		return nil, err
	}

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLineForUpdate(ctx, userID, menuItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		adjusted, err := s.bump(ctx, repo, line, delta)
		if err != nil {
			return err
		}
		result = adjusted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) bump(ctx context.Context, repo Repository, line *models.CartItem, delta int) (*models.CartItem, error) {
	next := line.Quantity + delta
	switch {
	case next > MaxQuantityPerLine:
		return nil, pkgerrors.New(pkgerrors.CodeQuantityLimit,
			fmt.Sprintf("cart line limited to %d units", MaxQuantityPerLine))
	case next < 1:
		// decrement floors at one unit; the line survives
		return line, nil
	}
	if err := repo.UpdateLineQuantity(ctx, line.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart quantity")
	}
	line.Quantity = next
	return line, nil
}

// RemoveItem drops the line from the cart entirely.
func (s *service) RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) error {
	if err := validateIdentity(userID, menuItemID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLineForUpdate(ctx, userID, menuItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		return nil
	})
}

// View returns the current lines with the snapshot-priced total and the
// summed quantity across lines.
func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	total := decimal.Zero
	count := 0
	for _, line := range lines {
		total = total.Add(line.LineSubtotal())
		count += line.Quantity
	}
	return &View{Lines: lines, Total: total, ItemCount: count}, nil
}

// Clear empties the user's cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.DeleteUserLines(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func validateIdentity(userID, menuItemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if menuItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}
	return nil
}

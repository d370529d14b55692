package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

// Service exposes the catalog browse and operator maintenance surface.
type Service interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	GetRestaurantMenus(ctx context.Context, restaurantID uuid.UUID) ([]MenuView, error)
	GetMenuItems(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, itemID uuid.UUID) (*models.MenuItem, error)
	GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error)
	SearchMenuItems(ctx context.Context, query string) ([]models.MenuItem, error)

	CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error)
	CreateMenu(ctx context.Context, input CreateMenuInput) (*models.Menu, error)
	AddMenuItem(ctx context.Context, input AddMenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, itemID uuid.UUID, input UpdateMenuItemInput) (*models.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) error
}

// searchResultLimit caps how many rows a substring search returns.
const searchResultLimit = 50

// slugRetryLimit bounds how often AddMenuItem re-rolls a colliding slug.
const slugRetryLimit = 3

type service struct {
	repo Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// MenuView bundles a menu with its available items for the browse surface.
type MenuView struct {
	Menu  models.Menu       `json:"menu"`
	Items []models.MenuItem `json:"items"`
}

// CreateRestaurantInput captures operator input for a new restaurant.
// OpensAt and ClosesAt are optional wall-clock times in "15:04" form.
type CreateRestaurantInput struct {
	Name     string
	Address  *string
	Phone    *string
	Email    *string
	OpensAt  *string
	ClosesAt *string
	ImageURL *string
}

// CreateMenuInput captures operator input for a new meal-slot menu.
type CreateMenuInput struct {
	RestaurantID uuid.UUID
	Title        string
}

// AddMenuItemInput captures operator input for a new menu item.
type AddMenuItemInput struct {
	MenuID      uuid.UUID
	Name        string
	Description *string
	Price       string
	ImageURL    *string
}

// UpdateMenuItemInput carries the mutable fields of a menu item. Nil fields
// are left untouched.
type UpdateMenuItemInput struct {
	Name        *string
	Description *string
	Price       *string
	ImageURL    *string
}

func (s *service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.repo.ListRestaurants(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	return restaurants, nil
}

func (s *service) GetRestaurantMenus(ctx context.Context, restaurantID uuid.UUID) ([]MenuView, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}

	restaurant, err := s.repo.FindRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if !restaurant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}

	menus, err := s.repo.ListMenus(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menus")
	}

	views := make([]MenuView, 0, len(menus))
	for _, menu := range menus {
		items, err := s.repo.ListMenuItems(ctx, menu.ID, false)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
		}
		views = append(views, MenuView{Menu: menu, Items: items})
	}
	return views, nil
}

func (s *service) GetMenuItems(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, error) {
	if menuID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu id required")
	}
	if _, err := s.repo.FindMenu(ctx, menuID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}
	items, err := s.repo.ListMenuItems(ctx, menuID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	return items, nil
}

func (s *service) GetMenuItem(ctx context.Context, itemID uuid.UUID) (*models.MenuItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}
	item, err := s.repo.FindMenuItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item slug required")
	}
	item, err := s.repo.FindMenuItemBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	return item, nil
}

func (s *service) SearchMenuItems(ctx context.Context, query string) ([]models.MenuItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	items, err := s.repo.SearchMenuItems(ctx, query, searchResultLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search menu items")
	}
	return items, nil
}

func (s *service) CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name required")
	}
	opensAt, closesAt, err := validateHours(input.OpensAt, input.ClosesAt)
	if err != nil {
		return nil, err
	}

	restaurant := &models.Restaurant{
		Name:     name,
		Address:  input.Address,
		Phone:    input.Phone,
		Email:    input.Email,
		OpensAt:  opensAt,
		ClosesAt: closesAt,
		ImageURL: input.ImageURL,
		IsActive: true,
	}
	created, err := s.repo.CreateRestaurant(ctx, restaurant)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_restaurants_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "restaurant name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create restaurant")
	}
	return created, nil
}

func (s *service) CreateMenu(ctx context.Context, input CreateMenuInput) (*models.Menu, error) {
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	title, err := enums.ParseMenuTitle(input.Title)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu title")
	}

	if _, err := s.repo.FindRestaurant(ctx, input.RestaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}

	menu := &models.Menu{
		RestaurantID: input.RestaurantID,
		Title:        title,
	}
	created, err := s.repo.CreateMenu(ctx, menu)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_menus_restaurant_title") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "menu already exists for this meal slot")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu")
	}
	return created, nil
}

func (s *service) AddMenuItem(ctx context.Context, input AddMenuItemInput) (*models.MenuItem, error) {
	if input.MenuID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindMenu(ctx, input.MenuID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu")
	}

	item := &models.MenuItem{
		MenuID:      input.MenuID,
		Name:        name,
		Slug:        slugify(name),
		Description: input.Description,
		Price:       price,
		ImageURL:    input.ImageURL,
		IsAvailable: true,
	}
	for attempt := 0; ; attempt++ {
		created, err := s.repo.CreateMenuItem(ctx, item)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, "uq_menu_items_slug") || attempt >= slugRetryLimit {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
		}
		// Same dish name elsewhere in the catalog; disambiguate the slug.
		item.Slug = slugify(name) + "-" + uuid.NewString()[:8]
	}
}

func (s *service) UpdateMenuItem(ctx context.Context, itemID uuid.UUID, input UpdateMenuItemInput) (*models.MenuItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		price, err := parsePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.repo.FindMenuItem(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}

	if err := s.repo.UpdateMenuItem(ctx, itemID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return s.GetMenuItem(ctx, itemID)
}

func (s *service) SetMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "menu item id required")
	}
	if _, err := s.repo.FindMenuItem(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if err := s.repo.UpdateMenuItem(ctx, itemID, map[string]any{"is_available": available}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item availability")
	}
	return nil
}

// validateHours checks the optional opening window. Both ends must be set
// together and opening must precede closing on the same day.
func validateHours(opens, closes *string) (*string, *string, error) {
	if opens == nil && closes == nil {
		return nil, nil, nil
	}
	if opens == nil || closes == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "opening and closing times must be set together")
	}
	opensAt, err := time.Parse("15:04", strings.TrimSpace(*opens))
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "opening time must use HH:MM format")
	}
	closesAt, err := time.Parse("15:04", strings.TrimSpace(*closes))
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "closing time must use HH:MM format")
	}
	if !opensAt.Before(closesAt) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "opening time must be before closing time")
	}
	o := opensAt.Format("15:04")
	c := closesAt.Format("15:04")
	return &o, &c, nil
}

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a dish name into a URL-safe identifier, e.g.
// "Masala Dosa (large)" becomes "masala-dosa-large".
func slugify(name string) string {
	slug := slugInvalidRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return price, nil
}

package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
)

// Repository defines persistence operations for restaurants, menus, and items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, includeInactive bool) ([]models.Restaurant, error)
	FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error)
	ListMenus(ctx context.Context, restaurantID uuid.UUID) ([]models.Menu, error)
	FindMenu(ctx context.Context, id uuid.UUID) (*models.Menu, error)
	FindMenuByTitle(ctx context.Context, restaurantID uuid.UUID, title enums.MenuTitle) (*models.Menu, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error)
	FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, menuID uuid.UUID, includeUnavailable bool) ([]models.MenuItem, error)
	SearchMenuItems(ctx context.Context, query string, limit int) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

func (r *repository) ListRestaurants(ctx context.Context, includeInactive bool) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	query := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *repository) FindRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) CreateMenu(ctx context.Context, menu *models.Menu) (*models.Menu, error) {
	if err := r.db.WithContext(ctx).Create(menu).Error; err != nil {
		return nil, err
	}
	return menu, nil
}

func (r *repository) ListMenus(ctx context.Context, restaurantID uuid.UUID) ([]models.Menu, error) {
	var menus []models.Menu
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("title ASC").
		Find(&menus).Error
	if err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *repository) FindMenu(ctx context.Context, id uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) FindMenuByTitle(ctx context.Context, restaurantID uuid.UUID, title enums.MenuTitle) (*models.Menu, error) {
	var menu models.Menu
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND title = ?", restaurantID, title).
		First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) (*models.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListMenuItems(ctx context.Context, menuID uuid.UUID, includeUnavailable bool) ([]models.MenuItem, error) {
	var items []models.MenuItem
	query := r.db.WithContext(ctx).
		Where("menu_id = ?", menuID).
		Order("name ASC")
	if !includeUnavailable {
		query = query.Where("is_available = ?", true)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) SearchMenuItems(ctx context.Context, query string, limit int) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Where("name ILIKE ?", "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateMenuItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

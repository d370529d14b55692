package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/api/responses"
	"github.com/rkfood/rkfood-backend/api/validators"
	catalogsvc "github.com/rkfood/rkfood-backend/internal/catalog"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
	"github.com/rkfood/rkfood-backend/pkg/logger"
)

// ListRestaurants returns the active restaurants.
func ListRestaurants(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		restaurants, err := svc.ListRestaurants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]restaurantResponse, 0, len(restaurants))
		for _, restaurant := range restaurants {
			out = append(out, newRestaurantResponse(restaurant))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetRestaurantMenus returns the restaurant's menus with their available items.
func GetRestaurantMenus(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		restaurantID, err := pathUUID(r, "restaurantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		menus, err := svc.GetRestaurantMenus(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]menuViewResponse, 0, len(menus))
		for _, view := range menus {
			out = append(out, newMenuViewResponse(view))
		}
		responses.WriteSuccess(w, out)
	}
}

// ListMenuItems returns the available items on one menu.
func ListMenuItems(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		menuID, err := pathUUID(r, "menuID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.GetMenuItems(r.Context(), menuID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]menuItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, newMenuItemResponse(item))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetMenuItem returns the detail view of one item.
func GetMenuItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetMenuItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMenuItemResponse(*item))
	}
}

// GetMenuItemBySlug returns the detail view of one item addressed by its
// URL-safe slug.
func GetMenuItemBySlug(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		item, err := svc.GetMenuItemBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMenuItemResponse(*item))
	}
}

// SearchMenuItems finds available items by name substring.
func SearchMenuItems(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.SearchMenuItems(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]menuItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, newMenuItemResponse(item))
		}
		responses.WriteSuccess(w, out)
	}
}

// CreateRestaurant registers a new restaurant. Operator surface.
func CreateRestaurant(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createRestaurantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.CreateRestaurant(r.Context(), catalogsvc.CreateRestaurantInput{
			Name:     payload.Name,
			Address:  payload.Address,
			Phone:    payload.Phone,
			Email:    payload.Email,
			OpensAt:  payload.OpensAt,
			ClosesAt: payload.ClosesAt,
			ImageURL: payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRestaurantResponse(*restaurant))
	}
}

// CreateMenu adds a meal-slot menu to a restaurant. Operator surface.
func CreateMenu(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		restaurantID, err := pathUUID(r, "restaurantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createMenuRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		menu, err := svc.CreateMenu(r.Context(), catalogsvc.CreateMenuInput{
			RestaurantID: restaurantID,
			Title:        payload.Title,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMenuResponse(*menu))
	}
}

// AddMenuItem adds an item to a menu. Operator surface.
func AddMenuItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		menuID, err := pathUUID(r, "menuID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddMenuItem(r.Context(), catalogsvc.AddMenuItemInput{
			MenuID:      menuID,
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			ImageURL:    payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMenuItemResponse(*item))
	}
}

// UpdateMenuItem edits item fields. Operator surface.
func UpdateMenuItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateMenuItem(r.Context(), itemID, catalogsvc.UpdateMenuItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			ImageURL:    payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMenuItemResponse(*item))
	}
}

// SetMenuItemAvailability toggles whether an item can be ordered. Operator surface.
func SetMenuItemAvailability(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetMenuItemAvailability(r.Context(), itemID, *payload.Available); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"available": *payload.Available})
	}
}

type createRestaurantRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	OpensAt  *string `json:"opens_at,omitempty"`
	ClosesAt *string `json:"closes_at,omitempty"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type createMenuRequest struct {
	Title string `json:"title" validate:"required"`
}

type addMenuItemRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       string  `json:"price" validate:"required"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type updateMenuItemRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *string `json:"price,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type setAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type restaurantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	OpensAt   *string   `json:"opens_at,omitempty"`
	ClosesAt  *string   `json:"closes_at,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type menuResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Title        string    `json:"title"`
}

type menuViewResponse struct {
	Menu  menuResponse       `json:"menu"`
	Items []menuItemResponse `json:"items"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	MenuID      uuid.UUID `json:"menu_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
}

func newRestaurantResponse(restaurant models.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:        restaurant.ID,
		Name:      restaurant.Name,
		Address:   restaurant.Address,
		Phone:     restaurant.Phone,
		Email:     restaurant.Email,
		OpensAt:   restaurant.OpensAt,
		ClosesAt:  restaurant.ClosesAt,
		ImageURL:  restaurant.ImageURL,
		CreatedAt: restaurant.CreatedAt,
	}
}

func newMenuResponse(menu models.Menu) menuResponse {
	return menuResponse{
		ID:           menu.ID,
		RestaurantID: menu.RestaurantID,
		Title:        string(menu.Title),
	}
}

func newMenuViewResponse(view catalogsvc.MenuView) menuViewResponse {
	items := make([]menuItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, newMenuItemResponse(item))
	}
	return menuViewResponse{Menu: newMenuResponse(view.Menu), Items: items}
}

func newMenuItemResponse(item models.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          item.ID,
		MenuID:      item.MenuID,
		Name:        item.Name,
		Slug:        item.Slug,
		Description: item.Description,
		Price:       item.Price.StringFixed(2),
		ImageURL:    item.ImageURL,
		IsAvailable: item.IsAvailable,
	}
}

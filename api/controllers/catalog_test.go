package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/rkfood/rkfood-backend/internal/catalog"
	"github.com/rkfood/rkfood-backend/pkg/db/models"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

type stubCatalogService struct {
	restaurants []models.Restaurant
	menus       []catalogsvc.MenuView
	items       []models.MenuItem
	item        *models.MenuItem
	restaurant  *models.Restaurant
	menu        *models.Menu
	err         error
}

func (s stubCatalogService) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.restaurants, s.err
}

func (s stubCatalogService) GetRestaurantMenus(ctx context.Context, restaurantID uuid.UUID) ([]catalogsvc.MenuView, error) {
	return s.menus, s.err
}

func (s stubCatalogService) GetMenuItems(ctx context.Context, menuID uuid.UUID) ([]models.MenuItem, error) {
	return s.items, s.err
}

func (s stubCatalogService) GetMenuItem(ctx context.Context, itemID uuid.UUID) (*models.MenuItem, error) {
	return s.item, s.err
}

func (s stubCatalogService) GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	return s.item, s.err
}

func (s stubCatalogService) SearchMenuItems(ctx context.Context, query string) ([]models.MenuItem, error) {
	return s.items, s.err
}

func (s stubCatalogService) CreateRestaurant(ctx context.Context, input catalogsvc.CreateRestaurantInput) (*models.Restaurant, error) {
	return s.restaurant, s.err
}

func (s stubCatalogService) CreateMenu(ctx context.Context, input catalogsvc.CreateMenuInput) (*models.Menu, error) {
	return s.menu, s.err
}

func (s stubCatalogService) AddMenuItem(ctx context.Context, input catalogsvc.AddMenuItemInput) (*models.MenuItem, error) {
	return s.item, s.err
}

func (s stubCatalogService) UpdateMenuItem(ctx context.Context, itemID uuid.UUID, input catalogsvc.UpdateMenuItemInput) (*models.MenuItem, error) {
	return s.item, s.err
}

func (s stubCatalogService) SetMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) error {
	return s.err
}

func TestListRestaurantsSuccess(t *testing.T) {
	svc := stubCatalogService{restaurants: []models.Restaurant{
		{ID: uuid.New(), Name: "Golden Wok"},
		{ID: uuid.New(), Name: "Trattoria Roma"},
	}}
	handler := ListRestaurants(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/restaurants", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []restaurantResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].Name != "Golden Wok" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestGetMenuItemFormatsPrice(t *testing.T) {
	item := &models.MenuItem{
		ID:          uuid.New(),
		MenuID:      uuid.New(),
		Name:        "Green Curry",
		Price:       decimal.RequireFromString("12.5"),
		IsAvailable: true,
	}
	handler := GetMenuItem(stubCatalogService{item: item}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+item.ID.String(), nil)
	req = withURLParam(req, "itemID", item.ID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data menuItemResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Price != "12.50" {
		t.Fatalf("expected price 12.50, got %s", envelope.Data.Price)
	}
}

func TestGetMenuItemBySlug(t *testing.T) {
	item := &models.MenuItem{
		ID:          uuid.New(),
		MenuID:      uuid.New(),
		Name:        "Green Curry",
		Slug:        "green-curry",
		Price:       decimal.RequireFromString("12.50"),
		IsAvailable: true,
	}
	handler := GetMenuItemBySlug(stubCatalogService{item: item}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/by-slug/green-curry", nil)
	req = withURLParam(req, "slug", "green-curry")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data menuItemResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Slug != "green-curry" {
		t.Fatalf("unexpected slug: %s", envelope.Data.Slug)
	}
}

func TestSearchMenuItemsReturnsMatches(t *testing.T) {
	svc := stubCatalogService{items: []models.MenuItem{
		{ID: uuid.New(), MenuID: uuid.New(), Name: "Masala Dosa", Price: decimal.RequireFromString("4.75"), IsAvailable: true},
	}}
	handler := SearchMenuItems(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/items/search?q=dosa", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []menuItemResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Masala Dosa" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestSearchMenuItemsBlankQuery(t *testing.T) {
	handler := SearchMenuItems(stubCatalogService{err: pkgerrors.New(pkgerrors.CodeValidation, "search query required")}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/items/search", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetMenuItemNotFound(t *testing.T) {
	handler := GetMenuItem(stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")}, nil)

	itemID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String(), nil)
	req = withURLParam(req, "itemID", itemID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCreateMenuCreated(t *testing.T) {
	restaurantID := uuid.New()
	menu := &models.Menu{ID: uuid.New(), RestaurantID: restaurantID, Title: enums.MenuTitleLunch}
	handler := CreateMenu(stubCatalogService{menu: menu}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/restaurants/"+restaurantID.String()+"/menus", `{"title":"lunch"}`)
	req = withURLParam(req, "restaurantID", restaurantID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data menuResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Title != "lunch" {
		t.Fatalf("unexpected title: %s", envelope.Data.Title)
	}
}

func TestCreateRestaurantValidation(t *testing.T) {
	handler := CreateRestaurant(stubCatalogService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/restaurants", `{"name":""}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSetMenuItemAvailabilityRequiresFlag(t *testing.T) {
	handler := SetMenuItemAvailability(stubCatalogService{}, nil)

	itemID := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/items/"+itemID.String()+"/availability", `{}`)
	req = withURLParam(req, "itemID", itemID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rkfood/rkfood-backend/pkg/db/models"
	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	lines map[uuid.UUID]*models.CartItem // keyed by line ID
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{lines: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) find(userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	for _, line := range s.lines {
		if line.UserID == userID && line.MenuItemID == menuItemID {
			return line, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindLine(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	return s.find(userID, menuItemID)
}

func (s *stubCartRepo) FindLineForUpdate(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartItem, error) {
	return s.find(userID, menuItemID)
}

func (s *stubCartRepo) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	out := []models.CartItem{}
	for _, line := range s.lines {
		if line.UserID == userID {
			out = append(out, *line)
		}
	}
	return out, nil
}

func (s *stubCartRepo) ListLinesForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.ListLines(ctx, userID)
}

func (s *stubCartRepo) CreateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	s.lines[line.ID] = line
	return line, nil
}

func (s *stubCartRepo) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	line, ok := s.lines[lineID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	line.Quantity = quantity
	return nil
}

func (s *stubCartRepo) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	delete(s.lines, lineID)
	return nil
}

func (s *stubCartRepo) DeleteUserLines(ctx context.Context, userID uuid.UUID) error {
	for id, line := range s.lines {
		if line.UserID == userID {
			delete(s.lines, id)
		}
	}
	return nil
}

type stubCatalog struct {
	items map[uuid.UUID]*models.MenuItem
}

func (s *stubCatalog) GetMenuItem(ctx context.Context, itemID uuid.UUID) (*models.MenuItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return item, nil
}

func newCartService(t *testing.T) (Service, *stubCartRepo, *stubCatalog) {
	t.Helper()
	repo := newStubCartRepo()
	catalog := &stubCatalog{items: map[uuid.UUID]*models.MenuItem{}}
	svc, err := NewService(repo, passthroughTx{}, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, catalog
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	t.Parallel()

	svc, repo, catalog := newCartService(t)
	userID := uuid.New()
	item := &models.MenuItem{ID: uuid.New(), Name: "Masala Dosa", Price: decimal.RequireFromString("4.75"), IsAvailable: true}
	catalog.items[item.ID] = item

	line, err := svc.AddItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", line.Quantity)
	}
	if !line.UnitPrice.Equal(item.Price) {
		t.Fatalf("expected snapshot price %s, got %s", item.Price, line.UnitPrice)
	}

	// catalog price change must not reprice the existing line
	item.Price = decimal.RequireFromString("9.99")
	again, err := svc.AddItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if again.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", again.Quantity)
	}
	if !again.UnitPrice.Equal(decimal.RequireFromString("4.75")) {
		t.Fatalf("expected original snapshot kept, got %s", again.UnitPrice)
	}
	if len(repo.lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(repo.lines))
	}
}

func TestAddItemRejectsUnavailable(t *testing.T) {
	t.Parallel()

	svc, _, catalog := newCartService(t)
	item := &models.MenuItem{ID: uuid.New(), Name: "Off Menu", Price: decimal.RequireFromString("1.00"), IsAvailable: false}
	catalog.items[item.ID] = item

	_, err := svc.AddItem(context.Background(), uuid.New(), item.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unavailable item, got %v", err)
	}
}

func TestIncrementItemEnforcesCap(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newCartService(t)
	userID := uuid.New()
	itemID := uuid.New()
	line := &models.CartItem{
		ID:         uuid.New(),
		UserID:     userID,
		MenuItemID: itemID,
		ItemName:   "Vada",
		UnitPrice:  decimal.RequireFromString("1.50"),
		Quantity:   MaxQuantityPerLine,
	}
	repo.lines[line.ID] = line

	_, err := svc.IncrementItem(context.Background(), userID, itemID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeQuantityLimit) {
		t.Fatalf("expected quantity limit error, got %v", err)
	}
	if line.Quantity != MaxQuantityPerLine {
		t.Fatalf("quantity must stay at cap, got %d", line.Quantity)
	}
}

func TestDecrementItemFloorsAtOne(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newCartService(t)
	userID := uuid.New()
	itemID := uuid.New()
	line := &models.CartItem{
		ID:         uuid.New(),
		UserID:     userID,
		MenuItemID: itemID,
		ItemName:   "Vada",
		UnitPrice:  decimal.RequireFromString("1.50"),
		Quantity:   1,
	}
	repo.lines[line.ID] = line

	got, err := svc.DecrementItem(context.Background(), userID, itemID)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got.Quantity != 1 {
		t.Fatalf("expected floor at 1, got %d", got.Quantity)
	}
	if _, ok := repo.lines[line.ID]; !ok {
		t.Fatal("line must survive a floored decrement")
	}
}

func TestRemoveItemDeletesLine(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newCartService(t)
	userID := uuid.New()
	itemID := uuid.New()
	line := &models.CartItem{
		ID:         uuid.New(),
		UserID:     userID,
		MenuItemID: itemID,
		ItemName:   "Vada",
		UnitPrice:  decimal.RequireFromString("1.50"),
		Quantity:   3,
	}
	repo.lines[line.ID] = line

	if err := svc.RemoveItem(context.Background(), userID, itemID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(repo.lines) != 0 {
		t.Fatal("expected line removed")
	}

	err := svc.RemoveItem(context.Background(), userID, itemID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on double remove, got %v", err)
	}
}

func TestViewTotalsSnapshotPrices(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newCartService(t)
	userID := uuid.New()
	repo.lines[uuid.New()] = &models.CartItem{
		ID: uuid.New(), UserID: userID, MenuItemID: uuid.New(),
		ItemName: "Dosa", UnitPrice: decimal.RequireFromString("4.75"), Quantity: 2,
	}
	repo.lines[uuid.New()] = &models.CartItem{
		ID: uuid.New(), UserID: userID, MenuItemID: uuid.New(),
		ItemName: "Chai", UnitPrice: decimal.RequireFromString("1.25"), Quantity: 4,
	}

	view, err := svc.View(context.Background(), userID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(view.Lines))
	}
	want := decimal.RequireFromString("14.50")
	if !view.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, view.Total)
	}
	if view.ItemCount != 6 {
		t.Fatalf("expected item count 6, got %d", view.ItemCount)
	}
}

func TestViewEmptyCart(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCartService(t)
	view, err := svc.View(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 0 || view.ItemCount != 0 || !view.Total.IsZero() {
		t.Fatalf("expected empty view, got %+v", view)
	}
}

// serialTx emulates the locking read: concurrent transactions over the same
// line run one at a time, the way row locks serialize writers in Postgres.
type serialTx struct {
	mu sync.Mutex
}

func (s *serialTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(nil)
}

func TestConcurrentIncrementsStopAtCap(t *testing.T) {
	t.Parallel()

	repo := newStubCartRepo()
	catalog := &stubCatalog{items: map[uuid.UUID]*models.MenuItem{}}
	svc, err := NewService(repo, &serialTx{}, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	userID := uuid.New()
	menuItemID := uuid.New()
	lineID := uuid.New()
	repo.lines[lineID] = &models.CartItem{
		ID: lineID, UserID: userID, MenuItemID: menuItemID,
		ItemName: "Thali", UnitPrice: decimal.RequireFromString("8.00"),
		Quantity: MaxQuantityPerLine - 1,
	}

	const callers = 5
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementItem(context.Background(), userID, menuItemID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, capped := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.HasCode(err, pkgerrors.CodeQuantityLimit):
			capped++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one increment may win, got %d", succeeded)
	}
	if capped != callers-1 {
		t.Fatalf("expected %d capped increments, got %d", callers-1, capped)
	}

	line, err := repo.FindLine(context.Background(), userID, menuItemID)
	if err != nil {
		t.Fatalf("find line: %v", err)
	}
	if line.Quantity != MaxQuantityPerLine {
		t.Fatalf("quantity = %d, want %d", line.Quantity, MaxQuantityPerLine)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/wizard"
)

type stubRepo struct {
	closed  bool
	orders  []model.JournalEntry
	listErr error

	statuses map[int64]model.OrderStatus
	gotQuery model.OrderStatus
}

func (s *stubRepo) Close() error {
	s.closed = true
	return nil
}

func (s *stubRepo) RecordOrder(ctx context.Context, e model.JournalEntry) error {
	if s.statuses == nil {
		s.statuses = map[int64]model.OrderStatus{}
	}
	s.statuses[e.OrderID] = e.Status
	return nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if s.statuses == nil {
		s.statuses = map[int64]model.OrderStatus{}
	}
	s.statuses[orderID] = status
	return nil
}

func (s *stubRepo) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.JournalEntry, error) {
	s.gotQuery = status
	return s.orders, s.listErr
}

type stubBackend struct {
	token string
}

func (s *stubBackend) SearchRooms(ctx context.Context, hotelID int, q api.SearchQuery) (*api.SearchResult, error) {
	return &api.SearchResult{Success: true, Rooms: model.Inventory{
		{ID: 7, TypeName: "Double", TotalPriceForStay: 200, AvailableCount: 3},
	}}, nil
}

func (s *stubBackend) CreateBooking(ctx context.Context, req api.BookingRequest) (int64, error) {
	return 1, nil
}

func (s *stubBackend) CheckPerson(ctx context.Context, q api.PersonQuery) (*model.Person, error) {
	return nil, nil
}

func (s *stubBackend) Countries(ctx context.Context) ([]model.Country, error) {
	return nil, errors.New("unavailable")
}

func (s *stubBackend) RegisterPayment(ctx context.Context, req api.RegisterPaymentRequest) (string, error) {
	return "v", nil
}

func (s *stubBackend) ConfirmPayment(ctx context.Context, req api.ConfirmPaymentRequest) error {
	return nil
}

func newTestService(repo *stubRepo) (*Service, *[]string) {
	svc := NewService(repo, api.NewClient("http://example.invalid", time.Second), Options{
		IdleTTL: time.Minute,
		Logger:  zap.NewNop(),
	})
	var tokens []string
	svc.backendFor = func(token string) wizard.Backend {
		tokens = append(tokens, token)
		return &stubBackend{token: token}
	}
	return svc, &tokens
}

func TestOpenAndGetWizard(t *testing.T) {
	svc, tokens := newTestService(&stubRepo{})

	id, w, err := svc.OpenWizard(context.Background(), "user-token", wizard.OpenParams{HotelID: 12})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}
	if id == "" {
		t.Fatalf("expected wizard id")
	}
	if w.Stage() != wizard.StageSearchAvailability {
		t.Fatalf("expected stage %v, got %v", wizard.StageSearchAvailability, w.Stage())
	}
	if len(*tokens) != 1 || (*tokens)[0] != "user-token" {
		t.Fatalf("expected backend bound to user token, got %v", *tokens)
	}

	got, err := svc.Wizard(id)
	if err != nil {
		t.Fatalf("get wizard: %v", err)
	}
	if got != w {
		t.Fatalf("expected the same wizard instance")
	}
}

func TestOpenWizardValidation(t *testing.T) {
	svc, _ := newTestService(&stubRepo{})

	if _, _, err := svc.OpenWizard(context.Background(), "", wizard.OpenParams{}); err == nil {
		t.Fatalf("expected error for missing hotel")
	}
	if len(svc.sessions) != 0 {
		t.Fatalf("failed open must not register a wizard")
	}
}

func TestCloseWizard(t *testing.T) {
	svc, _ := newTestService(&stubRepo{})
	id, w, err := svc.OpenWizard(context.Background(), "", wizard.OpenParams{HotelID: 12})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}

	if err := svc.CloseWizard(context.Background(), id); err != nil {
		t.Fatalf("close wizard: %v", err)
	}
	if w.Stage() != wizard.StageClosed {
		t.Fatalf("expected closed stage, got %v", w.Stage())
	}
	if _, err := svc.Wizard(id); !errors.Is(err, ErrWizardNotFound) {
		t.Fatalf("expected ErrWizardNotFound, got %v", err)
	}
	if err := svc.CloseWizard(context.Background(), id); !errors.Is(err, ErrWizardNotFound) {
		t.Fatalf("expected ErrWizardNotFound on second close, got %v", err)
	}
}

func TestSweepIdle(t *testing.T) {
	svc, _ := newTestService(&stubRepo{})
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	staleID, stale, err := svc.OpenWizard(context.Background(), "", wizard.OpenParams{HotelID: 12})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}

	now = now.Add(50 * time.Second)
	freshID, _, err := svc.OpenWizard(context.Background(), "", wizard.OpenParams{HotelID: 12})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}

	now = now.Add(20 * time.Second)
	if n := svc.sweepIdle(context.Background()); n != 1 {
		t.Fatalf("expected 1 expired wizard, got %d", n)
	}
	if stale.Stage() != wizard.StageClosed {
		t.Fatalf("expected idle wizard closed, got %v", stale.Stage())
	}
	if _, err := svc.Wizard(staleID); !errors.Is(err, ErrWizardNotFound) {
		t.Fatalf("expected idle wizard removed, got %v", err)
	}
	if _, err := svc.Wizard(freshID); err != nil {
		t.Fatalf("fresh wizard must survive: %v", err)
	}
}

func TestSweepIdleJournalsAbandonedOrder(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	_, w, err := svc.OpenWizard(ctx, "", wizard.OpenParams{
		HotelID: 12,
		Stay: model.StayDates{
			CheckIn:  model.NewDate(2025, time.June, 1),
			CheckOut: model.NewDate(2025, time.June, 3),
		},
		PreSelected: map[int]int{7: 1},
	})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}

	name, phone, passport := "Alisher", "998901234567", "AA1234567"
	birth := model.NewDate(1990, time.March, 4)
	if err := w.EditGuest(wizard.GuestPatch{Name: &name, Phone: &phone, PassportNumber: &passport, BirthDate: &birth}); err != nil {
		t.Fatalf("edit guest: %v", err)
	}
	if err := w.SubmitGuest(ctx); err != nil {
		t.Fatalf("submit guest: %v", err)
	}

	now = now.Add(2 * time.Minute)
	svc.sweepIdle(ctx)

	if repo.statuses[1] != model.OrderStatusAbandoned {
		t.Fatalf("expected abandoned order in journal, got %q", repo.statuses[1])
	}
}

func TestListOrders(t *testing.T) {
	repo := &stubRepo{orders: []model.JournalEntry{{OrderID: 3, Status: model.OrderStatusPaid}}}
	svc, _ := newTestService(repo)

	orders, err := svc.ListOrders(context.Background(), model.OrderStatusPaid)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != 3 {
		t.Fatalf("unexpected orders: %+v", orders)
	}
	if repo.gotQuery != model.OrderStatusPaid {
		t.Fatalf("expected status filter passed through, got %q", repo.gotQuery)
	}
}

func TestStartIdleSweeperStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(&stubRepo{})
	ctx, cancel := context.WithCancel(context.Background())

	svc.StartIdleSweeper(ctx)
	cancel()
}

func TestCloseService(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestService(repo)
	_, w, err := svc.OpenWizard(context.Background(), "", wizard.OpenParams{HotelID: 12})
	if err != nil {
		t.Fatalf("open wizard: %v", err)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("close service: %v", err)
	}
	if !repo.closed {
		t.Fatalf("expected repository closed")
	}
	if w.Stage() != wizard.StageClosed {
		t.Fatalf("expected wizards closed with service")
	}
}

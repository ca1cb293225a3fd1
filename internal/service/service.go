// Package service управляет открытыми мастерами бронирования и журналом заказов.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/wizard"
)

// ErrWizardNotFound возвращается для неизвестного или уже удалённого мастера.
var ErrWizardNotFound = errors.New("wizard not found")

// DefaultIdleTTL задаёт время простоя, после которого мастер закрывается.
const DefaultIdleTTL = 30 * time.Minute

// Repository описывает журнал заказов, используемый сервисом.
type Repository interface {
	Close() error
	RecordOrder(ctx context.Context, e model.JournalEntry) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.JournalEntry, error)
}

// Options задаёт параметры сервиса.
type Options struct {
	LookupDebounce time.Duration
	IdleTTL        time.Duration
	Logger         *zap.Logger
}

type session struct {
	wizard  *wizard.Wizard
	touched time.Time
}

// Service хранит мастера бронирования по идентификаторам.
type Service struct {
	repo       Repository
	backendFor func(token string) wizard.Backend
	opts       Options
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService создаёт сервис. Каждый мастер получает свою копию клиента API с токеном пользователя.
func NewService(repo Repository, client *api.Client, opts Options) *Service {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Service{
		repo: repo,
		backendFor: func(token string) wizard.Backend {
			return client.WithTokens(api.NewMemoryTokens(token))
		},
		opts:     opts,
		logger:   opts.Logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Close закрывает все мастера и ресурсы сервиса.
func (s *Service) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.wizard.Close(context.Background())
	}

	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// OpenWizard открывает мастер от имени пользователя с указанным токеном.
func (s *Service) OpenWizard(ctx context.Context, token string, params wizard.OpenParams) (string, *wizard.Wizard, error) {
	w, err := wizard.Open(ctx, s.backendFor(token), s.repo, params, wizard.Options{
		LookupDebounce: s.opts.LookupDebounce,
		Logger:         s.logger,
	})
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{wizard: w, touched: s.now()}
	s.mu.Unlock()

	s.logger.Info("wizard opened",
		zap.String("wizard", id),
		zap.Int("hotel", params.HotelID),
		zap.Stringer("stage", w.Stage()))
	return id, w, nil
}

// Wizard возвращает мастер по идентификатору и отмечает обращение к нему.
func (s *Service) Wizard(id string) (*wizard.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrWizardNotFound
	}
	sess.touched = s.now()
	return sess.wizard, nil
}

// CloseWizard закрывает мастер и забывает его.
func (s *Service) CloseWizard(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrWizardNotFound
	}

	sess.wizard.Close(ctx)
	s.logger.Info("wizard closed", zap.String("wizard", id))
	return nil
}

// ListOrders возвращает записи журнала заказов.
func (s *Service) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.JournalEntry, error) {
	return s.repo.ListOrders(ctx, status)
}

// StartIdleSweeper запускает фоновое закрытие мастеров, к которым не обращались дольше IdleTTL.
func (s *Service) StartIdleSweeper(ctx context.Context) {
	interval := s.opts.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepIdle(ctx)
			}
		}
	}()
}

func (s *Service) sweepIdle(ctx context.Context) int {
	deadline := s.now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	var idle []*wizard.Wizard
	for id, sess := range s.sessions {
		if sess.touched.Before(deadline) {
			idle = append(idle, sess.wizard)
			delete(s.sessions, id)
			s.logger.Info("idle wizard expired", zap.String("wizard", id))
		}
	}
	s.mu.Unlock()

	for _, w := range idle {
		w.Close(ctx)
	}
	return len(idle)
}

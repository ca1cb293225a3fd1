// Package wizard реализует пятишаговый мастер бронирования: поиск, выбор номеров,
// данные гостя, регистрация карты и подтверждение оплаты кодом.
package wizard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/identity"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/payment"
	"github.com/mmeshcher/silkroad-booking/internal/pricing"
	"github.com/mmeshcher/silkroad-booking/internal/selection"
)

const bookingStatusPending = "pending"

// Backend описывает удалённое API, с которым работает мастер.
type Backend interface {
	SearchRooms(ctx context.Context, hotelID int, q api.SearchQuery) (*api.SearchResult, error)
	CreateBooking(ctx context.Context, req api.BookingRequest) (int64, error)
	CheckPerson(ctx context.Context, q api.PersonQuery) (*model.Person, error)
	Countries(ctx context.Context) ([]model.Country, error)
	RegisterPayment(ctx context.Context, req api.RegisterPaymentRequest) (string, error)
	ConfirmPayment(ctx context.Context, req api.ConfirmPaymentRequest) error
}

// Journal фиксирует заказы локально. Ошибки журнала не влияют на переходы мастера.
type Journal interface {
	RecordOrder(ctx context.Context, entry model.JournalEntry) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
}

// Options задаёт параметры мастера.
type Options struct {
	LookupDebounce time.Duration
	Logger         *zap.Logger
}

// OpenParams содержит параметры открытия мастера.
type OpenParams struct {
	HotelID     int
	Stay        model.StayDates
	Party       model.PartySize
	PreSelected map[int]int
	Guest       model.Guest
}

// Wizard ведёт бронирование одного гостя. Методы безопасны для конкурентного вызова;
// блокировка не удерживается во время сетевых вызовов.
type Wizard struct {
	backend   Backend
	journal   Journal
	payments  *payment.Flow
	lookup    *identity.Lookup
	logger    *zap.Logger
	countries []model.Country

	// journalMu упорядочивает записи журнала; берётся до освобождения mu.
	journalMu sync.Mutex

	mu         sync.Mutex
	draft      Draft
	state      State
	submitting bool
	searchSeq  uint64
	searching  bool
	generation uint64
	lastError  string
}

// Open создаёт мастер. Справочник стран загружается один раз; при ошибке используется запасной список.
// Если даты известны, выполняется ровно один поиск: с предвыбором мастер сразу переходит
// к данным гостя, без него переходит к выбору номеров.
func Open(ctx context.Context, backend Backend, journal Journal, params OpenParams, opts Options) (*Wizard, error) {
	if params.HotelID <= 0 {
		errs := newValidation()
		errs.Add("hotel_id", "hotel is required")
		return nil, errs
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	party := params.Party
	if party.Adults == 0 {
		party.Adults = 1
	}
	if party.Rooms == 0 {
		party.Rooms = 1
	}

	w := &Wizard{
		backend:  backend,
		journal:  journal,
		payments: payment.NewFlow(backend, logger),
		logger:   logger,
		draft: Draft{
			HotelID:   params.HotelID,
			Stay:      params.Stay,
			Party:     party,
			Guest:     params.Guest,
			Document:  model.IdentityDocument{CitizenshipID: model.DefaultCitizenshipID},
			Selection: selection.New(nil),
		},
		state: SearchAvailability{},
	}
	w.lookup = identity.New(backend, opts.LookupDebounce, w.applyLookupName, logger)
	w.countries = loadCountries(ctx, backend, logger)

	if !params.Stay.Known() {
		return w, nil
	}

	criteria := Criteria{Stay: params.Stay, Party: party}
	if len(params.PreSelected) == 0 {
		if err := w.Search(ctx, criteria); err != nil {
			logger.Info("initial search failed", zap.Int("hotel", params.HotelID), zap.Error(err))
		}
		return w, nil
	}

	if err := w.hydrate(ctx, criteria, params.PreSelected); err != nil {
		logger.Info("preselected search failed", zap.Int("hotel", params.HotelID), zap.Error(err))
	}
	return w, nil
}

func loadCountries(ctx context.Context, backend Backend, logger *zap.Logger) []model.Country {
	countries, err := backend.Countries(ctx)
	if err != nil || len(countries) == 0 {
		logger.Warn("countries unavailable, using fallback list", zap.Error(err))
		return append([]model.Country(nil), model.FallbackCountries...)
	}
	return countries
}

// Search выполняет поиск свободных номеров. Применяется только ответ на последний запрос;
// успешный поиск заменяет инвентарь и очищает выбор.
func (w *Wizard) Search(ctx context.Context, c Criteria) error {
	return w.runSearch(ctx, c, searchable, func(inventory model.Inventory) {
		w.draft = w.draft.WithCriteria(c).WithSelection(selection.New(inventory), inventory)
		w.state = SelectInventory{Inventory: inventory}
		w.logger.Debug("search applied", zap.Int("hotel", w.draft.HotelID), zap.Int("lines", len(inventory)))
	})
}

// hydrate выполняет поиск для предвыбранных номеров и переходит к данным гостя.
// Если ни одна предвыбранная строка не доступна, мастер остаётся на выборе номеров.
func (w *Wizard) hydrate(ctx context.Context, c Criteria, preselected map[int]int) error {
	return w.runSearch(ctx, c, initial, func(inventory model.Inventory) {
		store := selection.Reapply(inventory, preselected)
		w.draft = w.draft.WithCriteria(c).WithSelection(store, inventory)
		if store.Empty() {
			w.state = SelectInventory{Inventory: inventory}
			return
		}
		w.state = GuestDetails{Inventory: inventory, QuotedTotal: w.draft.DerivedTotal}
		w.lookup.Update(w.draft.Document)
	})
}

func searchable(st State) bool {
	return st.Stage() == StageSearchAvailability || st.Stage() == StageSelectInventory
}

func initial(st State) bool {
	return st.Stage() == StageSearchAvailability
}

// runSearch выполняет запрос поиска и вызывает apply под блокировкой,
// только если ответ всё ещё актуален.
func (w *Wizard) runSearch(ctx context.Context, c Criteria, allowed func(State) bool, apply func(model.Inventory)) error {
	w.mu.Lock()
	if w.state.Stage().Terminal() {
		w.mu.Unlock()
		return ErrClosed
	}
	if !allowed(w.state) {
		w.mu.Unlock()
		return ErrWrongStage
	}
	if err := validateCriteria(c); err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return err
	}
	w.searchSeq++
	seq, gen := w.searchSeq, w.generation
	hotelID := w.draft.HotelID
	w.searching = true
	w.mu.Unlock()

	res, err := w.backend.SearchRooms(ctx, hotelID, api.SearchQuery{
		CheckIn:  c.Stay.CheckIn,
		CheckOut: c.Stay.CheckOut,
		Adults:   c.Party.Adults,
		Children: c.Party.Children,
		Rooms:    c.Party.Rooms,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		return ErrClosed
	}
	if seq == w.searchSeq {
		w.searching = false
	}
	if seq != w.searchSeq || !allowed(w.state) {
		w.logger.Debug("stale search response discarded", zap.Uint64("seq", seq))
		return ErrSuperseded
	}

	if err != nil {
		stageErr := newStageError(w.state.Stage(), msgSearchFailed, err)
		w.lastError = stageErr.Message
		return stageErr
	}
	if len(res.Rooms) == 0 {
		stageErr := &StageError{Stage: w.state.Stage(), Message: msgNoAvailability, Err: ErrNoAvailability}
		w.lastError = stageErr.Message
		return stageErr
	}

	apply(res.Rooms)
	w.lastError = ""
	return nil
}

// SetQuantity задаёт количество номеров строки. Количество <= 0 снимает выбор.
func (w *Wizard) SetQuantity(lineID, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.state.(SelectInventory)
	if !ok {
		return w.wrongStage()
	}

	store, err := w.draft.Selection.SetQuantity(lineID, quantity)
	if err != nil {
		return err
	}
	w.draft = w.draft.WithSelection(store, st.Inventory)
	return nil
}

// Proceed переходит к данным гостя и фиксирует сумму для показа.
func (w *Wizard) Proceed() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.state.(SelectInventory)
	if !ok {
		return w.wrongStage()
	}
	if w.draft.Selection.Empty() {
		return ErrEmptySelection
	}

	w.state = GuestDetails{Inventory: st.Inventory, QuotedTotal: w.draft.DerivedTotal}
	w.lastError = ""
	w.lookup.Update(w.draft.Document)
	return nil
}

// EditGuest изменяет поля гостя и документа. Изменение документа перезапускает
// отложенный запрос к реестру личности.
func (w *Wizard) EditGuest(patch GuestPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.state.(GuestDetails)
	if !ok {
		return w.wrongStage()
	}
	if st.Order != nil {
		return ErrOrderLocked
	}
	if w.submitting {
		return ErrSubmitInFlight
	}

	w.draft = w.draft.WithGuestPatch(patch)
	w.lookup.Update(w.draft.Document)
	return nil
}

func (w *Wizard) applyLookupName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.state.(GuestDetails)
	if !ok || st.Order != nil || w.submitting {
		return
	}
	w.draft = w.draft.WithGuestName(name)
	w.logger.Debug("guest name filled from identity registry")
}

// SubmitGuest проверяет данные гостя и создаёт заказ. При ошибке мастер остаётся на шаге.
func (w *Wizard) SubmitGuest(ctx context.Context) error {
	w.mu.Lock()
	st, ok := w.state.(GuestDetails)
	if !ok {
		w.mu.Unlock()
		return w.wrongStage()
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	if st.Order != nil {
		w.state = CardRegistration{Inventory: st.Inventory, QuotedTotal: st.QuotedTotal, Order: *st.Order}
		w.mu.Unlock()
		return nil
	}
	if err := validateGuest(w.draft); err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return err
	}

	draft := w.draft
	req := bookingRequest(draft, st.Inventory)
	gen := w.generation
	w.submitting = true
	w.mu.Unlock()

	id, err := w.backend.CreateBooking(ctx, req)

	w.mu.Lock()
	if gen != w.generation {
		if err != nil {
			w.mu.Unlock()
			return ErrClosed
		}
		w.journalMu.Lock()
		w.mu.Unlock()
		w.record(ctx, draft, id, model.OrderStatusAbandoned)
		w.journalMu.Unlock()
		return ErrClosed
	}
	w.submitting = false
	if err != nil {
		stageErr := newStageError(StageGuestDetails, msgBookingFailed, err)
		w.lastError = stageErr.Message
		w.mu.Unlock()
		w.logger.Warn("booking creation failed", zap.Int("hotel", draft.HotelID), zap.Error(err))
		return stageErr
	}

	order := model.Order{ID: id, Status: model.OrderStatusPendingPayment}
	w.state = CardRegistration{Inventory: st.Inventory, QuotedTotal: st.QuotedTotal, Order: order}
	w.lastError = ""
	w.lookup.Stop()
	w.journalMu.Lock()
	w.mu.Unlock()
	defer w.journalMu.Unlock()

	w.logger.Info("booking created", zap.Int64("order", id), zap.Int("hotel", draft.HotelID))
	w.record(ctx, draft, id, model.OrderStatusPendingPayment)
	return nil
}

func bookingRequest(d Draft, inventory model.Inventory) api.BookingRequest {
	return api.BookingRequest{
		HotelID:         d.HotelID,
		CheckIn:         d.Stay.CheckIn,
		CheckOut:        d.Stay.CheckOut,
		Adults:          d.Party.Adults,
		Children:        d.Party.Children,
		Rooms:           pricing.Rooms(d.Selection.Quantities()),
		GuestName:       d.Guest.Name,
		GuestEmail:      d.Guest.Email,
		GuestPhone:      d.Guest.Phone,
		SpecialRequests: d.Guest.SpecialRequests,
		Passport:        d.Document.PassportNumber,
		Birthday:        d.Document.BirthDate,
		Citizen:         d.Document.CitizenshipID,
		TotalPrice:      pricing.Total(d.Selection.Quantities(), inventory),
		BookingStatus:   bookingStatusPending,
		SelectedRooms:   d.OrderLines(inventory),
	}
}

// SubmitCard регистрирует карту. Телефон для кода берётся из данных гостя.
func (w *Wizard) SubmitCard(ctx context.Context, card model.Card) error {
	w.mu.Lock()
	st, ok := w.state.(CardRegistration)
	if !ok {
		w.mu.Unlock()
		return w.wrongStage()
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := payment.ValidateCard(card); err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return err
	}
	phone := w.draft.Guest.Phone
	gen := w.generation
	w.submitting = true
	w.mu.Unlock()

	session, err := w.payments.RegisterCard(ctx, card, phone)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		return ErrClosed
	}
	w.submitting = false
	if err != nil {
		stageErr := newStageError(StageCardRegistration, msgCardFailed, err)
		w.lastError = stageErr.Message
		return stageErr
	}

	w.state = CodeConfirmation{
		Inventory:   st.Inventory,
		QuotedTotal: st.QuotedTotal,
		Order:       st.Order,
		Session:     session,
	}
	w.lastError = ""
	return nil
}

// SubmitCode подтверждает оплату кодом. При ошибке можно повторить с новым кодом
// по той же сессии.
func (w *Wizard) SubmitCode(ctx context.Context, code string) error {
	w.mu.Lock()
	st, ok := w.state.(CodeConfirmation)
	if !ok {
		w.mu.Unlock()
		return w.wrongStage()
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := payment.ValidateCode(code); err != nil {
		w.lastError = err.Error()
		w.mu.Unlock()
		return err
	}
	gen := w.generation
	w.submitting = true
	w.mu.Unlock()

	err := w.payments.Confirm(ctx, st.Session, code, st.Order.ID)

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return ErrClosed
	}
	w.submitting = false
	if err != nil {
		stageErr := newStageError(StageCodeConfirmation, msgConfirmFailed, err)
		w.lastError = stageErr.Message
		w.mu.Unlock()
		return stageErr
	}

	order := st.Order
	order.Status = model.OrderStatusPaid
	w.state = Completed{Order: order}
	w.lastError = ""
	w.journalMu.Lock()
	w.mu.Unlock()
	defer w.journalMu.Unlock()

	w.updateStatus(ctx, order.ID, model.OrderStatusPaid)
	return nil
}

// Back возвращает мастер на предыдущий шаг: 2→1, 3→2, 4→3. Введённые данные сохраняются.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrSubmitInFlight
	}

	switch st := w.state.(type) {
	case SelectInventory:
		w.state = SearchAvailability{}
	case GuestDetails:
		if st.Order != nil {
			return ErrOrderLocked
		}
		w.lookup.Pause()
		w.state = SelectInventory{Inventory: st.Inventory}
	case CardRegistration:
		order := st.Order
		w.state = GuestDetails{Inventory: st.Inventory, QuotedTotal: st.QuotedTotal, Order: &order}
	default:
		return w.wrongStage()
	}
	w.lastError = ""
	return nil
}

// Close закрывает мастер. Созданный, но не оплаченный заказ не отменяется на сервере,
// а помечается в журнале как брошенный. Ответы на запросы, выполнявшиеся в момент
// закрытия, игнорируются.
func (w *Wizard) Close(ctx context.Context) {
	w.mu.Lock()
	if w.state.Stage().Terminal() {
		w.mu.Unlock()
		return
	}

	order := orderOf(w.state)
	if order != nil {
		o := *order
		o.Status = model.OrderStatusAbandoned
		order = &o
	}
	w.generation++
	w.state = Closed{Order: order}
	w.submitting = false
	w.searching = false
	w.lookup.Stop()
	w.mu.Unlock()

	if order != nil {
		w.logger.Info("wizard closed with unpaid order", zap.Int64("order", order.ID))
		w.journalMu.Lock()
		w.updateStatus(ctx, order.ID, model.OrderStatusAbandoned)
		w.journalMu.Unlock()
	}
}

// Stage возвращает текущий шаг.
func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Stage()
}

// Draft возвращает копию текущего черновика.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *Wizard) wrongStage() error {
	if w.state.Stage().Terminal() {
		return ErrClosed
	}
	return ErrWrongStage
}

// record и updateStatus вызываются под journalMu.
func (w *Wizard) record(ctx context.Context, d Draft, orderID int64, status model.OrderStatus) {
	if w.journal == nil {
		return
	}
	err := w.journal.RecordOrder(ctx, model.JournalEntry{
		OrderID:    orderID,
		HotelID:    d.HotelID,
		GuestName:  d.Guest.Name,
		GuestPhone: d.Guest.Phone,
		Total:      d.DerivedTotal,
		Status:     status,
	})
	if err != nil {
		w.logger.Error("failed to journal order", zap.Int64("order", orderID), zap.Error(err))
	}
}

func (w *Wizard) updateStatus(ctx context.Context, orderID int64, status model.OrderStatus) {
	if w.journal == nil {
		return
	}
	if err := w.journal.UpdateStatus(ctx, orderID, status); err != nil {
		w.logger.Error("failed to update journaled order",
			zap.Int64("order", orderID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

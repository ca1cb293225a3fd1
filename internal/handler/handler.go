// Package handler содержит HTTP-обработчики API мастера бронирования.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/middleware"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/wizard"
)

// Service определяет контракт сервиса, используемого HTTP-обработчиками.
type Service interface {
	OpenWizard(ctx context.Context, token string, params wizard.OpenParams) (string, *wizard.Wizard, error)
	Wizard(id string) (*wizard.Wizard, error)
	CloseWizard(ctx context.Context, id string) error
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.JournalEntry, error)
}

// Handler реализует HTTP-обработчики API мастера бронирования.
type Handler struct {
	service        Service
	logger         *zap.Logger
	allowedOrigins []string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

type openRequest struct {
	HotelID     int          `json:"hotel_id"`
	CheckIn     model.Date   `json:"check_in"`
	CheckOut    model.Date   `json:"check_out"`
	Adults      int          `json:"adults"`
	Children    int          `json:"children"`
	Rooms       int          `json:"rooms"`
	PreSelected map[int]int  `json:"pre_selected_rooms"`
	Guest       *model.Guest `json:"guest"`
}

type wizardResponse struct {
	ID string `json:"id"`
	wizard.Snapshot
}

// OpenWizard открывает мастер бронирования для отеля.
func (h *Handler) OpenWizard(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeBody(w, r, &req) {
		return
	}

	params := wizard.OpenParams{
		HotelID:     req.HotelID,
		Stay:        model.StayDates{CheckIn: req.CheckIn, CheckOut: req.CheckOut},
		Party:       model.PartySize{Adults: req.Adults, Children: req.Children, Rooms: req.Rooms},
		PreSelected: req.PreSelected,
	}
	if req.Guest != nil {
		params.Guest = *req.Guest
	}

	token, _ := middleware.GetTokenFromContext(r.Context())
	id, wz, err := h.service.OpenWizard(r.Context(), token, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, wizardResponse{ID: id, Snapshot: wz.Snapshot()})
}

// GetWizard возвращает текущее состояние мастера.
func (h *Handler) GetWizard(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(wz *wizard.Wizard) error { return nil })
}

// CloseWizard закрывает мастер.
func (h *Handler) CloseWizard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseWizard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	CheckIn  model.Date `json:"check_in"`
	CheckOut model.Date `json:"check_out"`
	Adults   int        `json:"adults"`
	Children int        `json:"children"`
	Rooms    int        `json:"rooms"`
}

// Search выполняет поиск свободных номеров.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.Search(r.Context(), wizard.Criteria{
			Stay:  model.StayDates{CheckIn: req.CheckIn, CheckOut: req.CheckOut},
			Party: model.PartySize{Adults: req.Adults, Children: req.Children, Rooms: req.Rooms},
		})
	})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetQuantity задаёт количество номеров строки инвентаря.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.Atoi(chi.URLParam(r, "lineID"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req quantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.SetQuantity(lineID, req.Quantity)
	})
}

// Proceed переходит от выбора номеров к данным гостя.
func (h *Handler) Proceed(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.Proceed()
	})
}

// EditGuest изменяет поля гостя.
func (h *Handler) EditGuest(w http.ResponseWriter, r *http.Request) {
	var patch wizard.GuestPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.EditGuest(patch)
	})
}

// SubmitGuest применяет переданные поля гостя и создаёт заказ.
func (h *Handler) SubmitGuest(w http.ResponseWriter, r *http.Request) {
	var patch wizard.GuestPatch
	if !decodeOptionalBody(w, r, &patch) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		if patch != (wizard.GuestPatch{}) {
			if err := wz.EditGuest(patch); err != nil {
				return err
			}
		}
		return wz.SubmitGuest(r.Context())
	})
}

// SubmitCard регистрирует карту для оплаты заказа.
func (h *Handler) SubmitCard(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if !decodeBody(w, r, &card) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.SubmitCard(r.Context(), card)
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

// SubmitCode подтверждает оплату одноразовым кодом.
func (h *Handler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.SubmitCode(r.Context(), req.Code)
	})
}

// Back возвращает мастер на предыдущий шаг.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(wz *wizard.Wizard) error {
		return wz.Back()
	})
}

type orderResponse struct {
	OrderID    int64   `json:"order_id"`
	HotelID    int     `json:"hotel_id"`
	GuestName  string  `json:"guest_name"`
	GuestPhone string  `json:"guest_phone"`
	Total      float64 `json:"total"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// ListOrders возвращает журнал заказов, при необходимости отфильтрованный по статусу.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	switch status {
	case "", model.OrderStatusPendingPayment, model.OrderStatusPaid, model.OrderStatusAbandoned:
	default:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), status)
	if err != nil {
		h.logger.Error("list orders error", zap.Error(err), zap.String("status", string(status)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			OrderID:    o.OrderID,
			HotelID:    o.HotelID,
			GuestName:  o.GuestName,
			GuestPhone: o.GuestPhone,
			Total:      o.Total,
			Status:     string(o.Status),
			CreatedAt:  o.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  o.UpdatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// withWizard находит мастер из URL, выполняет действие и отвечает его состоянием.
func (h *Handler) withWizard(w http.ResponseWriter, r *http.Request, action func(*wizard.Wizard) error) {
	id := chi.URLParam(r, "id")
	wz, err := h.service.Wizard(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := action(wz); err != nil {
		h.logger.Debug("wizard action failed",
			zap.String("wizard", id),
			zap.Stringer("stage", wz.Stage()),
			zap.Error(err))
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wizardResponse{ID: id, Snapshot: wz.Snapshot()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

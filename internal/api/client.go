// Package api предоставляет клиент удалённого API бронирования.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/silkroad-booking/internal/model"
)

// RequestIDHeader задаёт заголовок с идентификатором исходящего запроса.
const RequestIDHeader = "X-Request-ID"

// Client инкапсулирует HTTP-взаимодействие с удалённым API бронирования.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

// NewClient создаёт клиент для API по указанному базовому адресу.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithTokens возвращает копию клиента, использующую указанное хранилище токена.
func (c *Client) WithTokens(tokens TokenStore) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// SearchQuery содержит параметры поиска свободных номеров.
type SearchQuery struct {
	CheckIn  model.Date `json:"check_in"`
	CheckOut model.Date `json:"check_out"`
	Adults   int        `json:"adults"`
	Children int        `json:"children"`
	Rooms    int        `json:"rooms"`
}

// SearchParams содержит параметры поиска, возвращённые сервером.
type SearchParams struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Rooms    int    `json:"rooms"`
}

// SearchResult описывает ответ поиска свободных номеров.
type SearchResult struct {
	Success bool            `json:"success"`
	Rooms   model.Inventory `json:"rooms"`
	Params  SearchParams    `json:"search_params"`
}

// SearchRooms запрашивает доступные типы номеров отеля на даты.
func (c *Client) SearchRooms(ctx context.Context, hotelID int, q SearchQuery) (*SearchResult, error) {
	var res SearchResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/hotels/%d/search-rooms/", hotelID), q, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, ErrUnsuccessful
	}
	return &res, nil
}

// BookingRequest описывает тело запроса на создание бронирования.
type BookingRequest struct {
	HotelID         int               `json:"hotel"`
	CheckIn         model.Date        `json:"check_in"`
	CheckOut        model.Date        `json:"check_out"`
	Adults          int               `json:"adults"`
	Children        int               `json:"children"`
	Rooms           int               `json:"rooms"`
	GuestName       string            `json:"guest_name"`
	GuestEmail      string            `json:"guest_email"`
	GuestPhone      string            `json:"guest_phone"`
	SpecialRequests string            `json:"special_requests"`
	Passport        string            `json:"passport"`
	Birthday        model.Date        `json:"birthday"`
	Citizen         int               `json:"citizen"`
	TotalPrice      float64           `json:"total_price"`
	BookingStatus   string            `json:"booking_status"`
	SelectedRooms   []model.OrderLine `json:"selected_rooms_json"`
}

type bookingResponse struct {
	ID int64 `json:"id"`
}

// CreateBooking создаёт заказ и возвращает его идентификатор.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (int64, error) {
	var res bookingResponse
	if err := c.do(ctx, http.MethodPost, "/hotels/bookings/", req, &res); err != nil {
		return 0, err
	}
	if res.ID == 0 {
		return 0, fmt.Errorf("create booking: %w", ErrUnsuccessful)
	}
	return res.ID, nil
}

// PersonQuery содержит параметры запроса к реестру личности.
type PersonQuery struct {
	Passport string     `json:"passport"`
	Birthday model.Date `json:"birthday"`
	Citizen  int        `json:"citizen"`
}

type personResponse struct {
	PSP *model.Person `json:"psp"`
}

// CheckPerson ищет человека в реестре. Отсутствие записи возвращается как (nil, nil).
func (c *Client) CheckPerson(ctx context.Context, q PersonQuery) (*model.Person, error) {
	var res personResponse
	if err := c.do(ctx, http.MethodPost, "/hotels/emehmon/check/", q, &res); err != nil {
		return nil, err
	}
	return res.PSP, nil
}

// Countries возвращает справочник гражданств.
func (c *Client) Countries(ctx context.Context) ([]model.Country, error) {
	var res []model.Country
	if err := c.do(ctx, http.MethodGet, "/locations/countries/", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// RegisterPaymentRequest содержит данные карты для регистрации в платёжном шлюзе.
type RegisterPaymentRequest struct {
	CardNumber string `json:"card_number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	Phone      string `json:"phone"`
}

type registerPaymentResponse struct {
	VerifyID string `json:"verifyId"`
	Data     *struct {
		VerifyID string `json:"verifyId"`
	} `json:"data"`
}

// RegisterPayment регистрирует карту и возвращает идентификатор верификации.
func (c *Client) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (string, error) {
	var res registerPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/hotels/payment/register/", req, &res); err != nil {
		return "", err
	}

	id := res.VerifyID
	if id == "" && res.Data != nil {
		id = res.Data.VerifyID
	}
	if id == "" {
		return "", fmt.Errorf("register payment: %w", ErrUnsuccessful)
	}
	return id, nil
}

// ConfirmPaymentRequest описывает подтверждение оплаты одноразовым кодом.
type ConfirmPaymentRequest struct {
	VerificationID string `json:"card_token"`
	Code           string `json:"card_code"`
	OrderID        int64  `json:"booking_id"`
}

type confirmPaymentResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// ConfirmPayment подтверждает оплату заказа кодом из SMS.
func (c *Client) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) error {
	var res confirmPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/hotels/payment/confirm/", req, &res); err != nil {
		return err
	}
	if res.Success != nil && !*res.Success {
		return &Error{Status: http.StatusOK, Message: res.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("api client not configured")
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	// Просроченный или отозванный токен: сбрасываем и повторяем запрос анонимно.
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		drain(resp)
		c.tokens.Clear()

		resp, err = c.send(ctx, method, path, payload, "")
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Package model содержит доменные сущности сервиса бронирования.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout задаёт формат календарной даты на проводе.
const DateLayout = "2006-01-02"

// Date описывает календарную дату без времени суток.
type Date struct {
	t time.Time
}

// NewDate создаёт дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату в формате 2006-01-02.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before сообщает, что дата строго раньше other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON кодирует дату строкой, пустая дата кодируется как "".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON принимает строку формата 2006-01-02 или пустую строку.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// StayDates содержит даты заезда и выезда.
type StayDates struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// Known сообщает, что обе даты заданы.
func (s StayDates) Known() bool {
	return !s.CheckIn.IsZero() && !s.CheckOut.IsZero()
}

// Nights возвращает количество ночей проживания.
func (s StayDates) Nights() int {
	if !s.Known() || !s.CheckIn.Before(s.CheckOut) {
		return 0
	}
	return int(s.CheckOut.t.Sub(s.CheckIn.t).Hours() / 24)
}

// PartySize описывает состав гостей и число номеров.
type PartySize struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Rooms    int `json:"rooms"`
}

// Features содержит удобства типа номера.
type Features struct {
	WiFi   bool `json:"wifi"`
	AirCon bool `json:"aircond"`
	TV     bool `json:"tvset"`
	Fridge bool `json:"freezer"`
}

// InventoryLine описывает один тип номера, доступный на выбранные даты.
type InventoryLine struct {
	ID                int      `json:"room_type_id"`
	TypeName          string   `json:"room_type"`
	Capacity          int      `json:"capacity"`
	PricePerNight     float64  `json:"price_per_night_usd"`
	TotalPriceForStay float64  `json:"total_price_usd"`
	AvailableCount    int      `json:"available_count"`
	Features          Features `json:"features"`
}

// Inventory содержит результат одного поиска доступности в порядке выдачи сервера.
type Inventory []InventoryLine

// Line возвращает строку по идентификатору.
func (inv Inventory) Line(id int) (InventoryLine, bool) {
	for _, l := range inv {
		if l.ID == id {
			return l, true
		}
	}
	return InventoryLine{}, false
}

// Guest содержит контактные данные гостя.
type Guest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// IdentityDocument содержит паспортные данные гостя.
type IdentityDocument struct {
	PassportNumber string `json:"passport"`
	BirthDate      Date   `json:"birth_date"`
	CitizenshipID  int    `json:"citizenship_id"`
}

// Country описывает элемент справочника гражданств.
type Country struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DefaultCitizenshipID задаёт гражданство, выбранное по умолчанию.
const DefaultCitizenshipID = 173

// FallbackCountries используется, если справочник стран не загрузился.
var FallbackCountries = []Country{
	{ID: 173, Name: "Uzbekistan"},
	{ID: 1, Name: "USA"},
	{ID: 7, Name: "Russia"},
}

// OrderStatus описывает статус оплаты заказа.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending-payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusAbandoned      OrderStatus = "abandoned"
)

// Order описывает заказ, созданный удалённым API после отправки данных гостя.
type Order struct {
	ID     int64       `json:"id"`
	Status OrderStatus `json:"status"`
}

// OrderLine описывает строку расшифровки заказа со снимком названия и цены.
type OrderLine struct {
	LineID    int     `json:"room_type_id"`
	TypeName  string  `json:"room_type"`
	Quantity  int     `json:"count"`
	UnitPrice float64 `json:"price"`
}

// PaymentSession хранит идентификатор верификации, выданный платёжным шлюзом.
type PaymentSession struct {
	VerificationID string `json:"verification_id"`
}

// Card содержит данные карты, вводимые на шаге оплаты.
type Card struct {
	Number   string `json:"card_number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
}

// Person содержит ответ реестра личности.
type Person struct {
	Surname   string `json:"surname"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// JournalEntry описывает запись локального журнала заказов.
type JournalEntry struct {
	OrderID    int64       `json:"order_id"`
	HotelID    int         `json:"hotel_id"`
	GuestName  string      `json:"guest_name"`
	GuestPhone string      `json:"guest_phone"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

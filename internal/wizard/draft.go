package wizard

import (
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/pricing"
	"github.com/mmeshcher/silkroad-booking/internal/selection"
	"github.com/mmeshcher/silkroad-booking/internal/validation"
)

// Draft содержит черновик бронирования. Значение неизменяемо: каждый метод With* возвращает копию.
type Draft struct {
	HotelID      int
	Stay         model.StayDates
	Party        model.PartySize
	Guest        model.Guest
	Document     model.IdentityDocument
	Selection    selection.Store
	DerivedTotal float64
}

// WithCriteria возвращает черновик с новыми датами и составом гостей.
func (d Draft) WithCriteria(c Criteria) Draft {
	d.Stay = c.Stay
	d.Party = c.Party
	return d
}

// WithSelection возвращает черновик с новым выбором и пересчитанной суммой.
func (d Draft) WithSelection(s selection.Store, inventory model.Inventory) Draft {
	d.Selection = s
	d.DerivedTotal = pricing.Total(s.Quantities(), inventory)
	return d
}

// WithGuestPatch возвращает черновик с применёнными изменениями полей гостя.
func (d Draft) WithGuestPatch(p GuestPatch) Draft {
	if p.Name != nil {
		d.Guest.Name = *p.Name
	}
	if p.Email != nil {
		d.Guest.Email = *p.Email
	}
	if p.Phone != nil {
		d.Guest.Phone = *p.Phone
	}
	if p.SpecialRequests != nil {
		d.Guest.SpecialRequests = *p.SpecialRequests
	}
	if p.PassportNumber != nil {
		d.Document.PassportNumber = *p.PassportNumber
	}
	if p.BirthDate != nil {
		d.Document.BirthDate = *p.BirthDate
	}
	if p.CitizenshipID != nil {
		d.Document.CitizenshipID = *p.CitizenshipID
	}
	return d
}

// WithGuestName возвращает черновик с перезаписанным именем гостя.
func (d Draft) WithGuestName(name string) Draft {
	d.Guest.Name = name
	return d
}

// OrderLines возвращает расшифровку выбора со снимком названия и цены каждой строки.
func (d Draft) OrderLines(inventory model.Inventory) []model.OrderLine {
	ids := d.Selection.LineIDs()
	lines := make([]model.OrderLine, 0, len(ids))
	for _, id := range ids {
		line, ok := inventory.Line(id)
		if !ok {
			continue
		}
		lines = append(lines, model.OrderLine{
			LineID:    id,
			TypeName:  line.TypeName,
			Quantity:  d.Selection.Quantity(id),
			UnitPrice: line.TotalPriceForStay,
		})
	}
	return lines
}

// GuestPatch описывает частичное изменение полей гостя. nil означает «не менять».
type GuestPatch struct {
	Name            *string     `json:"name,omitempty"`
	Email           *string     `json:"email,omitempty"`
	Phone           *string     `json:"phone,omitempty"`
	SpecialRequests *string     `json:"special_requests,omitempty"`
	PassportNumber  *string     `json:"passport,omitempty"`
	BirthDate       *model.Date `json:"birth_date,omitempty"`
	CitizenshipID   *int        `json:"citizenship_id,omitempty"`
}

// Criteria содержит параметры поиска свободных номеров.
type Criteria struct {
	Stay  model.StayDates `json:"stay"`
	Party model.PartySize `json:"party"`
}

func validateCriteria(c Criteria) error {
	errs := newValidation()
	if c.Stay.CheckIn.IsZero() {
		errs.Add("check_in", "check-in date is required")
	}
	if c.Stay.CheckOut.IsZero() {
		errs.Add("check_out", "check-out date is required")
	}
	if c.Stay.Known() && !c.Stay.CheckIn.Before(c.Stay.CheckOut) {
		errs.Add("check_out", "check-out must be after check-in")
	}
	if c.Party.Adults < 1 {
		errs.Add("adults", "at least one adult is required")
	}
	if c.Party.Children < 0 {
		errs.Add("children", "children cannot be negative")
	}
	if c.Party.Rooms < 1 {
		errs.Add("rooms", "at least one room is required")
	}
	return errs.Err()
}

func validateGuest(d Draft) error {
	errs := newValidation()
	if !validation.IsPresent(d.Guest.Name) {
		errs.Add("name", "name is required")
	}
	if !validation.IsPresent(d.Guest.Phone) {
		errs.Add("phone", "phone is required")
	}
	if !validation.IsPresent(d.Document.PassportNumber) {
		errs.Add("passport", "passport number is required")
	}
	if d.Document.BirthDate.IsZero() {
		errs.Add("birth_date", "birth date is required")
	}
	if d.Document.CitizenshipID <= 0 {
		errs.Add("citizenship_id", "citizenship is required")
	}
	return errs.Err()
}

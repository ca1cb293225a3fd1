package wizard

import (
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/pricing"
)

// Snapshot содержит состояние мастера для отображения клиенту.
type Snapshot struct {
	Stage          Stage                  `json:"stage"`
	StageName      string                 `json:"stage_name"`
	HotelID        int                    `json:"hotel_id"`
	Stay           model.StayDates        `json:"stay"`
	Nights         int                    `json:"nights"`
	Party          model.PartySize        `json:"party"`
	Inventory      model.Inventory        `json:"inventory,omitempty"`
	Selection      map[int]int            `json:"selection"`
	RoomsSelected  int                    `json:"rooms_selected"`
	Total          float64                `json:"total"`
	QuotedTotal    float64                `json:"quoted_total,omitempty"`
	Guest          model.Guest            `json:"guest"`
	Document       model.IdentityDocument `json:"document"`
	Countries      []model.Country        `json:"countries"`
	Order          *model.Order           `json:"order,omitempty"`
	Searching      bool                   `json:"searching"`
	Submitting     bool                   `json:"submitting"`
	CheckingPerson bool                   `json:"checking_person"`
	LastError      string                 `json:"last_error,omitempty"`
}

// Snapshot возвращает согласованную копию состояния мастера.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	quantities := w.draft.Selection.Quantities()
	snap := Snapshot{
		Stage:          w.state.Stage(),
		StageName:      w.state.Stage().String(),
		HotelID:        w.draft.HotelID,
		Stay:           w.draft.Stay,
		Nights:         w.draft.Stay.Nights(),
		Party:          w.draft.Party,
		Inventory:      inventoryOf(w.state),
		Selection:      quantities,
		RoomsSelected:  pricing.Rooms(quantities),
		Total:          w.draft.DerivedTotal,
		Guest:          w.draft.Guest,
		Document:       w.draft.Document,
		Countries:      w.countries,
		Searching:      w.searching,
		Submitting:     w.submitting,
		CheckingPerson: w.lookup.InFlight(),
		LastError:      w.lastError,
	}

	switch st := w.state.(type) {
	case GuestDetails:
		snap.QuotedTotal = st.QuotedTotal
	case CardRegistration:
		snap.QuotedTotal = st.QuotedTotal
	case CodeConfirmation:
		snap.QuotedTotal = st.QuotedTotal
	}
	if order := orderOf(w.state); order != nil {
		o := *order
		snap.Order = &o
	}

	return snap
}

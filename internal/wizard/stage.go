package wizard

import "github.com/mmeshcher/silkroad-booking/internal/model"

// Stage идентифицирует шаг мастера бронирования.
type Stage int

const (
	StageSearchAvailability Stage = iota + 1
	StageSelectInventory
	StageGuestDetails
	StageCardRegistration
	StageCodeConfirmation
	StageCompleted
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageSearchAvailability:
		return "search-availability"
	case StageSelectInventory:
		return "select-inventory"
	case StageGuestDetails:
		return "guest-details"
	case StageCardRegistration:
		return "card-registration"
	case StageCodeConfirmation:
		return "code-confirmation"
	case StageCompleted:
		return "completed"
	case StageClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal сообщает, что из шага нет переходов.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageClosed
}

// State описывает текущий шаг мастера вместе с данными, допустимыми только на этом шаге.
type State interface {
	Stage() Stage
}

// SearchAvailability соответствует вводу дат и состава гостей.
type SearchAvailability struct{}

// SelectInventory соответствует выбору количества номеров из результата последнего поиска.
type SelectInventory struct {
	Inventory model.Inventory
}

// GuestDetails соответствует вводу данных гостя. Order задан, если заказ уже создан и гость вернулся назад.
type GuestDetails struct {
	Inventory   model.Inventory
	QuotedTotal float64
	Order       *model.Order
}

// CardRegistration соответствует вводу данных карты для созданного заказа.
type CardRegistration struct {
	Inventory   model.Inventory
	QuotedTotal float64
	Order       model.Order
}

// CodeConfirmation соответствует вводу одноразового кода по зарегистрированной карте.
type CodeConfirmation struct {
	Inventory   model.Inventory
	QuotedTotal float64
	Order       model.Order
	Session     model.PaymentSession
}

// Completed означает, что оплата подтверждена.
type Completed struct {
	Order model.Order
}

// Closed означает, что мастер закрыт до оплаты. Order задан, если заказ успел создаться.
type Closed struct {
	Order *model.Order
}

func (SearchAvailability) Stage() Stage { return StageSearchAvailability }
func (SelectInventory) Stage() Stage    { return StageSelectInventory }
func (GuestDetails) Stage() Stage       { return StageGuestDetails }
func (CardRegistration) Stage() Stage   { return StageCardRegistration }
func (CodeConfirmation) Stage() Stage   { return StageCodeConfirmation }
func (Completed) Stage() Stage          { return StageCompleted }
func (Closed) Stage() Stage             { return StageClosed }

// inventoryOf возвращает инвентарь, действующий на шаге, или nil.
func inventoryOf(s State) model.Inventory {
	switch st := s.(type) {
	case SelectInventory:
		return st.Inventory
	case GuestDetails:
		return st.Inventory
	case CardRegistration:
		return st.Inventory
	case CodeConfirmation:
		return st.Inventory
	}
	return nil
}

// orderOf возвращает созданный заказ, если он есть.
func orderOf(s State) *model.Order {
	switch st := s.(type) {
	case GuestDetails:
		return st.Order
	case CardRegistration:
		o := st.Order
		return &o
	case CodeConfirmation:
		o := st.Order
		return &o
	case Completed:
		o := st.Order
		return &o
	case Closed:
		return st.Order
	}
	return nil
}

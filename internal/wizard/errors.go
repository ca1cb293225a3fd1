package wizard

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/validation"
)

var (
	// ErrWrongStage возвращается, если операция недопустима на текущем шаге.
	ErrWrongStage = errors.New("operation not allowed at current stage")
	// ErrSubmitInFlight возвращается при повторной отправке, пока предыдущая не завершилась.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrEmptySelection возвращается при переходе к данным гостя без выбранных номеров.
	ErrEmptySelection = errors.New("no rooms selected")
	// ErrClosed возвращается для любых операций после закрытия мастера.
	ErrClosed = errors.New("wizard closed")
	// ErrNoAvailability возвращается, если поиск не нашёл свободных номеров.
	ErrNoAvailability = errors.New("no rooms available")
	// ErrSuperseded возвращается для ответа поиска, который устарел до получения.
	ErrSuperseded = errors.New("search superseded by a newer request")
	// ErrOrderLocked возвращается при изменении черновика после создания заказа.
	ErrOrderLocked = errors.New("booking already created")
)

// Сообщения, показываемые, если сервер не прислал своего.
const (
	msgSearchFailed   = "failed to search available rooms"
	msgNoAvailability = "no rooms available for the selected dates"
	msgBookingFailed  = "failed to create booking"
	msgCardFailed     = "failed to register card"
	msgConfirmFailed  = "failed to confirm payment"
)

// StageError описывает ошибку удалённого вызова на шаге. Message предназначено для пользователя.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, generic string, err error) *StageError {
	msg := api.ServerMessage(err)
	if msg == "" {
		msg = generic
	}
	return &StageError{Stage: stage, Message: msg, Err: err}
}

func newValidation() *validation.Errors {
	return validation.NewErrors()
}

// Package payment реализует двухфазную оплату: регистрация карты и подтверждение кодом.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/validation"
)

// ErrNoSession возвращается при подтверждении без идентификатора верификации.
var ErrNoSession = errors.New("payment session not registered")

// Gateway описывает удалённые вызовы платёжного шлюза.
type Gateway interface {
	RegisterPayment(ctx context.Context, req api.RegisterPaymentRequest) (string, error)
	ConfirmPayment(ctx context.Context, req api.ConfirmPaymentRequest) error
}

// Flow выполняет вызовы оплаты. Автоматических повторов нет: повтор означает новую отправку формы.
type Flow struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewFlow создаёт платёжный сценарий поверх шлюза.
func NewFlow(gateway Gateway, logger *zap.Logger) *Flow {
	return &Flow{gateway: gateway, logger: logger}
}

// ValidateCard проверяет форму данных карты: 16 цифр, месяц и год по две цифры.
func ValidateCard(card model.Card) error {
	errs := validation.NewErrors()
	if !validation.IsCardNumber(card.Number) {
		errs.Add("card_number", "card number must be exactly 16 digits")
	}
	if !validation.IsExpiryPart(card.ExpMonth) {
		errs.Add("exp_month", "expiry month must be 2 digits")
	}
	if !validation.IsExpiryPart(card.ExpYear) {
		errs.Add("exp_year", "expiry year must be 2 digits")
	}
	return errs.Err()
}

// ValidateCode проверяет форму одноразового кода.
func ValidateCode(code string) error {
	if validation.IsConfirmationCode(code) {
		return nil
	}
	errs := validation.NewErrors()
	errs.Add("code", "code must be 1 to 6 characters")
	return errs.Err()
}

// RegisterCard регистрирует карту; код подтверждения уходит на телефон гостя.
func (f *Flow) RegisterCard(ctx context.Context, card model.Card, phone string) (model.PaymentSession, error) {
	if err := ValidateCard(card); err != nil {
		return model.PaymentSession{}, err
	}

	id, err := f.gateway.RegisterPayment(ctx, api.RegisterPaymentRequest{
		CardNumber: card.Number,
		ExpMonth:   card.ExpMonth,
		ExpYear:    card.ExpYear,
		Phone:      phone,
	})
	if err != nil {
		f.logger.Warn("card registration failed", zap.String("card", maskCard(card.Number)), zap.Error(err))
		return model.PaymentSession{}, fmt.Errorf("register card: %w", err)
	}

	f.logger.Info("card registered", zap.String("card", maskCard(card.Number)))
	return model.PaymentSession{VerificationID: id}, nil
}

// Confirm подтверждает оплату заказа кодом. Одна и та же сессия может использоваться повторно.
func (f *Flow) Confirm(ctx context.Context, session model.PaymentSession, code string, orderID int64) error {
	if session.VerificationID == "" {
		return ErrNoSession
	}
	if err := ValidateCode(code); err != nil {
		return err
	}

	err := f.gateway.ConfirmPayment(ctx, api.ConfirmPaymentRequest{
		VerificationID: session.VerificationID,
		Code:           code,
		OrderID:        orderID,
	})
	if err != nil {
		f.logger.Warn("payment confirmation failed", zap.Int64("order", orderID), zap.Error(err))
		return fmt.Errorf("confirm payment: %w", err)
	}

	f.logger.Info("payment confirmed", zap.Int64("order", orderID))
	return nil
}

func maskCard(number string) string {
	if len(number) < 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

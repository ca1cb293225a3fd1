package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/selection"
	"github.com/mmeshcher/silkroad-booking/internal/service"
	"github.com/mmeshcher/silkroad-booking/internal/validation"
	"github.com/mmeshcher/silkroad-booking/internal/wizard"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Stage  string            `json:"stage,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError переводит ошибку сервиса или мастера в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errs, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: errs.Fields()})
		return
	}

	var stageErr *wizard.StageError
	if errors.As(err, &stageErr) {
		status := http.StatusBadGateway
		var apiErr *api.Error
		if errors.Is(err, wizard.ErrNoAvailability) ||
			(errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: stageErr.Message, Stage: stageErr.Stage.String()})
		return
	}

	switch {
	case errors.Is(err, service.ErrWizardNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, wizard.ErrClosed):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	case errors.Is(err, wizard.ErrWrongStage),
		errors.Is(err, wizard.ErrSubmitInFlight),
		errors.Is(err, wizard.ErrEmptySelection),
		errors.Is(err, wizard.ErrOrderLocked),
		errors.Is(err, wizard.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, selection.ErrExceedsAvailable),
		errors.Is(err, selection.ErrUnknownLine):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("unexpected error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

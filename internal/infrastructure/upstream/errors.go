package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"passmais-agenda/internal/normalizer"
)

// APIError is a non-2xx answer from the PassMais API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("passmais api: status %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	message := http.StatusText(status)
	var payload any
	if err := json.Unmarshal(body, &payload); err == nil {
		if m, ok := normalizer.PickFirstString(payload, "message", "mensagem", "error", "detail"); ok {
			message = m
		}
	}
	return &APIError{Status: status, Message: message}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage maps an upstream failure to the message shown to the user.
func UserMessage(err error) string {
	switch StatusOf(err) {
	case http.StatusUnauthorized:
		return "Sua sessão expirou. Faça login novamente."
	case http.StatusForbidden:
		return "Você não tem permissão para realizar esta ação."
	case http.StatusNotFound:
		return "Registro não encontrado."
	case http.StatusConflict:
		return "Este horário não está mais disponível. Escolha outro horário."
	case http.StatusInternalServerError:
		return "Erro interno no servidor. Tente novamente mais tarde."
	default:
		return "Não foi possível concluir a operação. Tente novamente."
	}
}

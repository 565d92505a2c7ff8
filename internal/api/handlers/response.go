package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

const (
	msgInternalError = "внутренняя ошибка сервера"
	msgUnavailable   = "сервис временно недоступен, повторите запрос позже"
	msgUnauthorized  = "требуется заголовок X-User-ID"

	// maxBodyBytes ограничение тела запроса
	maxBodyBytes = 1 << 20
)

var errEmptyBody = errors.New("empty request body")

// ErrorResponse стандартная ошибка API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RejectionResponse отказ движка допуска
type RejectionResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DecodeJSON декодирует тело запроса, неизвестные поля запрещены
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// RespondJSON пишет JSON ответ. data == nil - пустое тело
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondUnauthorized(w http.ResponseWriter) {
	RespondError(w, http.StatusUnauthorized, msgUnauthorized)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondUnavailable 503 с Retry-After в секундах
func RespondUnavailable(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	RespondError(w, http.StatusServiceUnavailable, msgUnavailable)
}

// RespondRejection отказ движка допуска: {code, message, details}
func RespondRejection(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	RespondJSON(w, status, RejectionResponse{Code: code, Message: message, Details: details})
}

// PathID достает положительный int64 из переменной пути
func PathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPError интерфейс для ошибок с HTTP статусом и сообщением
// Используется для избежания циклических зависимостей с пакетом errors
type HTTPError interface {
	error
	StatusCode() int
	UserMessage() string
	GetContext() string
	Unwrap() error
}

// ErrorResponse структура ответа об ошибке
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// SendJSONError записывает JSON ошибку в Gin context и логирует её
func SendJSONError(c *gin.Context, statusCode int, message string) {
	reqID := GetRequestIDFromGin(c)

	slog.Error("HTTP error",
		"error", message,
		"status_code", statusCode,
		"request_id", reqID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	c.JSON(statusCode, ErrorResponse{
		Error:     message,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: reqID,
	})
}

// HandleHTTPError обрабатывает ошибку и возвращает JSON ответ.
// Поддерживает HTTPError интерфейс для правильной обработки статус кодов и сообщений
func HandleHTTPError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Внутренняя ошибка сервера"

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.StatusCode()
		message = httpErr.UserMessage()

		// Детали внутренней ошибки остаются в логах
		slog.Error("Application error",
			"error", err,
			"status_code", statusCode,
			"context", httpErr.GetContext(),
			"request_id", GetRequestIDFromGin(c),
			"path", c.Request.URL.Path,
		)
	} else {
		slog.Error("Unhandled error",
			"error", err,
			"request_id", GetRequestIDFromGin(c),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(statusCode, ErrorResponse{
		Error:     message,
		Timestamp: time.Now().Format(time.RFC3339),
		RequestID: GetRequestIDFromGin(c),
	})
}

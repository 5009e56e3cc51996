package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "optoutserver/server/errors"
	"optoutserver/server/middleware"
)

// AuthRequest тело проверки токена оператора
type AuthRequest struct {
	Token string `json:"token"`
}

// handleAuth обработчик проверки токена оператора
// @Summary Проверить токен оператора
// @Description Проксирует проверку токена во внешний API подачи заявок.
// @Tags external
// @Accept json
// @Produce json
// @Param auth body AuthRequest true "Токен"
// @Success 200 {object} AuthResponse "Результат проверки"
// @Failure 401 {object} middleware.ErrorResponse "Токен отклонен"
// @Failure 502 {object} middleware.ErrorResponse "Внешний API недоступен"
// @Router /api/auth [post]
func (s *Server) handleAuth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Невалидное тело запроса", err))
		return
	}

	resp, err := s.filingClient.Auth(c.Request.Context(), req.Token)
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewBadGatewayError("Сервис авторизации недоступен", err))
		return
	}
	if !resp.Allowed {
		middleware.HandleHTTPError(c, apperrors.NewUnauthorizedError("Токен отклонен", nil))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleMode обработчик режима внешнего API
// @Summary Получить режим внешнего API
// @Description Проксирует запрос режима (боевой или тестовый) внешнего API подачи заявок.
// @Tags external
// @Produce json
// @Success 200 {object} ModeResponse "Режим"
// @Failure 502 {object} middleware.ErrorResponse "Внешний API недоступен"
// @Router /api/mode [get]
func (s *Server) handleMode(c *gin.Context) {
	resp, err := s.filingClient.Mode(c.Request.Context())
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewBadGatewayError("Внешний API недоступен", err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

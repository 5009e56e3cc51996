package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"optoutserver/filing"
	apperrors "optoutserver/server/errors"
	"optoutserver/server/middleware"
)

// MandatorForm поля формы доверителя
type MandatorForm struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	StreetAddress string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	Region        string `json:"state"`
}

// RunRequest тело предпросмотра и запуска отправки
type RunRequest struct {
	Initials string       `json:"initials"`
	Mandator MandatorForm `json:"mandator"`
}

// PreviewResponse структура ответа предпросмотра
type PreviewResponse struct {
	Payloads []filing.FilingPayload `json:"payloads"`
}

// SubmitAcceptedResponse структура ответа запуска отправки
type SubmitAcceptedResponse struct {
	RunID string `json:"runId"`
	Total int    `json:"total"`
}

// ResultsResponse структура ответа со статусом отправки
type ResultsResponse struct {
	Running bool                      `json:"running"`
	Results []filing.SubmissionResult `json:"results"`
}

// mandatorFields переводит форму доверителя во внутренние поля
func (m MandatorForm) mandatorFields() filing.MandatorFields {
	return filing.MandatorFields{
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Email:         m.Email,
		StreetAddress: m.StreetAddress,
		City:          m.City,
		ZipCode:       m.ZipCode,
		Region:        m.Region,
	}
}

// buildRunInput собирает вход для сборки полезных нагрузок из сессии и формы
func (s *Server) buildRunInput(req RunRequest) (*filing.BuildInput, *apperrors.AppError) {
	applicant, err := s.session.Applicant()
	if err != nil {
		return nil, apperrors.NewNotFoundError("Заявитель еще не создан, импортируйте таблицу", err)
	}

	batch := s.session.Batch()
	if batch == nil || len(batch.PatentNumbers) == 0 {
		return nil, apperrors.NewValidationError("Нет номеров EP для отправки", nil)
	}

	applicationPDF, mandatePDF := s.session.Attachments()

	return &filing.BuildInput{
		Applicant:      *applicant,
		PatentNumbers:  batch.PatentNumbers,
		Initials:       req.Initials,
		ApplicationPDF: applicationPDF,
		MandatePDF:     mandatePDF,
		Mandator:       filing.BuildMandator(req.Mandator.mandatorFields()),
	}, nil
}

// handlePreview обработчик предпросмотра полезных нагрузок
// @Summary Предпросмотр полезных нагрузок
// @Description Детерминированно собирает JSON заявки для каждого номера EP без обращения к внешнему API.
// @Tags submission
// @Accept json
// @Produce json
// @Param run body RunRequest true "Инициалы и поля доверителя"
// @Success 200 {object} PreviewResponse "Полезные нагрузки"
// @Failure 400 {object} middleware.ErrorResponse "Сессия не готова"
// @Router /api/session/preview [post]
func (s *Server) handlePreview(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Невалидное тело запроса", err))
		return
	}

	input, appErr := s.buildRunInput(req)
	if appErr != nil {
		middleware.HandleHTTPError(c, appErr)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{Payloads: filing.BuildPayloads(*input)})
}

// handleSubmit обработчик запуска отправки
// @Summary Запустить отправку заявок
// @Description Запускает строго последовательную отправку заявки для каждого номера EP. Повторный запуск во время выполнения отклоняется. Ход выполнения доступен через /api/session/results.
// @Tags submission
// @Accept json
// @Produce json
// @Param run body RunRequest true "Инициалы и поля доверителя"
// @Success 202 {object} SubmitAcceptedResponse "Отправка запущена"
// @Failure 400 {object} middleware.ErrorResponse "Сессия не готова"
// @Failure 409 {object} middleware.ErrorResponse "Отправка уже идет"
// @Router /api/session/submit [post]
func (s *Server) handleSubmit(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Невалидное тело запроса", err))
		return
	}

	if strings.TrimSpace(req.Initials) == "" {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Инициалы обязательны", nil))
		return
	}

	input, appErr := s.buildRunInput(req)
	if appErr != nil {
		middleware.HandleHTTPError(c, appErr)
		return
	}
	if len(input.ApplicationPDF) == 0 {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("PDF заявления не загружен", nil))
		return
	}

	if err := s.session.BeginSubmission(); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewConflictError("Отправка уже выполняется", err))
		return
	}

	runID := uuid.New().String()

	s.lastRunMu.Lock()
	s.lastRunInitials = req.Initials
	s.lastRunMu.Unlock()

	job := SubmissionJob{
		RunID:          runID,
		Initials:       req.Initials,
		PatentNumbers:  input.PatentNumbers,
		Applicant:      input.Applicant,
		Mandator:       input.Mandator,
		ApplicationPDF: input.ApplicationPDF,
		MandatePDF:     input.MandatePDF,
	}

	LogInfo(c.Request.Context(), "Submission run started",
		"run_id", runID,
		"patents", len(job.PatentNumbers),
		"initials", job.Initials,
	)

	// Запуск переживает HTTP запрос, поэтому не привязан к его контексту
	go func() {
		defer s.session.EndSubmission()
		s.driver.SubmitAll(context.Background(), job, s.session.AppendResult)
		Logger.Info("Submission run finished", "run_id", runID)
	}()

	c.JSON(http.StatusAccepted, SubmitAcceptedResponse{
		RunID: runID,
		Total: len(job.PatentNumbers),
	})
}

// handleResults обработчик статуса отправки
// @Summary Получить результаты отправки
// @Tags submission
// @Produce json
// @Success 200 {object} ResultsResponse "Результаты в порядке отправки"
// @Router /api/session/results [get]
func (s *Server) handleResults(c *gin.Context) {
	results := s.session.Results()
	if results == nil {
		results = []filing.SubmissionResult{}
	}

	c.JSON(http.StatusOK, ResultsResponse{
		Running: s.session.SubmissionRunning(),
		Results: results,
	})
}

// handleReceipt обработчик скачивания одной квитанции
// @Summary Скачать квитанцию
// @Tags receipts
// @Produce application/pdf
// @Param initials query string true "Инициалы"
// @Param requestId query string true "Идентификатор заявки"
// @Param ep query string true "Номер EP"
// @Success 200 {file} binary "PDF квитанции"
// @Failure 404 {object} middleware.ErrorResponse "Квитанция не найдена"
// @Router /api/receipt [get]
func (s *Server) handleReceipt(c *gin.Context) {
	initials := c.Query("initials")
	requestID := c.Query("requestId")
	ep := c.Query("ep")
	if initials == "" || requestID == "" || ep == "" {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Параметры initials, requestId и ep обязательны", nil))
		return
	}

	data, err := s.filingClient.FetchReceipt(c.Request.Context(), initials, requestID, ep)
	if err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			middleware.HandleHTTPError(c, apperrors.NewNotFoundError("Квитанция не найдена", err))
			return
		}
		middleware.HandleHTTPError(c, apperrors.NewBadGatewayError("Не удалось получить квитанцию", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, receiptFilename(ep)))
	c.Data(http.StatusOK, "application/pdf", data)
}

// handleReceiptsArchive обработчик скачивания архива квитанций
// @Summary Скачать архив квитанций
// @Description Собирает zip-архив квитанций всех успешных отправок текущей сессии. Еще не готовые квитанции пропускаются.
// @Tags receipts
// @Produce application/zip
// @Success 200 {file} binary "Архив квитанций"
// @Failure 404 {object} middleware.ErrorResponse "Нет успешных отправок"
// @Failure 409 {object} middleware.ErrorResponse "Отправка еще идет"
// @Router /api/receipts.zip [get]
func (s *Server) handleReceiptsArchive(c *gin.Context) {
	if s.session.SubmissionRunning() {
		middleware.HandleHTTPError(c, apperrors.NewConflictError("Отправка еще выполняется", nil))
		return
	}

	results := s.session.Results()
	hasSucceeded := false
	for _, result := range results {
		if result.OK {
			hasSucceeded = true
			break
		}
	}
	if !hasSucceeded {
		middleware.HandleHTTPError(c, apperrors.NewNotFoundError("Нет успешных отправок для скачивания квитанций", nil))
		return
	}

	s.lastRunMu.RLock()
	initials := s.lastRunInitials
	s.lastRunMu.RUnlock()

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="receipts.zip"`)
	c.Status(http.StatusOK)

	added, err := s.bundler.BundleReceipts(c.Request.Context(), c.Writer, initials, results)
	if err != nil {
		// Заголовки уже отправлены, остается только залогировать
		LogError(c.Request.Context(), err, "Failed to bundle receipts", "added", added)
		return
	}

	LogInfo(c.Request.Context(), "Receipts archive sent", "receipts", added)
}

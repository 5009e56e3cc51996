package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"optoutserver/filing"
	"optoutserver/importer"
	apperrors "optoutserver/server/errors"
	"optoutserver/server/middleware"
)

// IngestResponse структура ответа импорта таблицы
type IngestResponse struct {
	PatentNumbers []string              `json:"patentNumbers"`
	Duplicates    []string              `json:"duplicates,omitempty"`
	Invalid       []string              `json:"invalid,omitempty"`
	Applicant     *filing.ApplicantInfo `json:"applicant"`
}

// ApplicantResponse структура ответа с карточкой заявителя
type ApplicantResponse struct {
	Applicant *filing.ApplicantInfo `json:"applicant"`
}

// ManualEditRequest тело ручного редактирования заявителя
type ManualEditRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	StreetAddress string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	Region        string `json:"state"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
}

// PersonTypeRequest тело переключения типа лица
type PersonTypeRequest struct {
	IsNaturalPerson bool `json:"isNaturalPerson"`
}

// AttachmentsResponse структура ответа загрузки вложений
type AttachmentsResponse struct {
	ApplicationSize int  `json:"applicationSize"`
	MandateAttached bool `json:"mandateAttached"`
	MandateSize     int  `json:"mandateSize,omitempty"`
}

// handleIngest обработчик импорта таблицы владельцев патентов
// @Summary Импортировать таблицу патентов
// @Description Разбирает xlsx/csv таблицу, извлекает номера EP и данные владельца, классифицирует владельца через внешний сервис и создает карточку заявителя. При ошибке классификации прежний заявитель сохраняется.
// @Tags session
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Таблица .xlsx или .csv"
// @Param isNaturalPerson formData bool false "Предвыбор: владелец — физическое лицо"
// @Success 200 {object} IngestResponse "Результат импорта"
// @Failure 400 {object} middleware.ErrorResponse "Невалидная таблица"
// @Failure 502 {object} middleware.ErrorResponse "Сбой классификации"
// @Router /api/session/ingest [post]
func (s *Server) handleIngest(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Файл таблицы не передан", err))
		return
	}
	if fileHeader.Size > s.config.MaxUploadSize {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Файл таблицы слишком большой", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewInternalError("Не удалось открыть загруженный файл", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.config.MaxUploadSize+1))
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewInternalError("Не удалось прочитать загруженный файл", err))
		return
	}

	isNaturalPerson := c.PostForm("isNaturalPerson") == "true"

	batch, err := importer.Parse(data)
	if err != nil {
		middleware.HandleHTTPError(c, ingestParseError(err))
		return
	}

	classification, err := s.parseClient.Classify(c.Request.Context(), batch.OwnerAddress, batch.OwnerName, isNaturalPerson)
	if err != nil {
		// Прежний заявитель остается нетронутым
		LogError(c.Request.Context(), err, "Classification failed, keeping previous applicant",
			"owner", batch.OwnerName,
		)
		middleware.HandleHTTPError(c, apperrors.NewBadGatewayError("Сервис классификации недоступен или отклонил запрос", err))
		return
	}

	applicant := filing.NewApplicantFromClassification(*classification, isNaturalPerson, batch.OwnerName, batch.OwnerEmail)

	s.session.SetBatch(batch)
	s.session.SetApplicant(applicant)

	LogInfo(c.Request.Context(), "Spreadsheet ingested",
		"patents", len(batch.PatentNumbers),
		"duplicates", len(batch.Duplicates),
		"invalid", len(batch.Invalid),
	)

	c.JSON(http.StatusOK, IngestResponse{
		PatentNumbers: batch.PatentNumbers,
		Duplicates:    batch.Duplicates,
		Invalid:       batch.Invalid,
		Applicant:     applicant,
	})
}

// ingestParseError переводит ошибки разбора таблицы в AppError
func ingestParseError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, importer.ErrHeaderNotFound):
		return apperrors.NewValidationError("Строка заголовков не найдена в первых десяти строках", err)
	case errors.Is(err, importer.ErrRequiredColumnsMissing):
		return apperrors.NewValidationError("В таблице нет обязательных колонок", err)
	case errors.Is(err, importer.ErrMalformedSpreadsheet):
		return apperrors.NewValidationError("Файл не распознан как таблица", err)
	default:
		return apperrors.NewInternalError("Не удалось разобрать таблицу", err)
	}
}

// handleGetApplicant обработчик чтения карточки заявителя
// @Summary Получить карточку заявителя
// @Tags session
// @Produce json
// @Success 200 {object} ApplicantResponse "Текущий заявитель"
// @Failure 404 {object} middleware.ErrorResponse "Таблица еще не импортирована"
// @Router /api/session/applicant [get]
func (s *Server) handleGetApplicant(c *gin.Context) {
	applicant, err := s.session.Applicant()
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewNotFoundError("Заявитель еще не создан, импортируйте таблицу", err))
		return
	}

	c.JSON(http.StatusOK, ApplicantResponse{Applicant: applicant})
}

// handleEditApplicant обработчик ручного редактирования заявителя
// @Summary Отредактировать карточку заявителя
// @Description Целиком заменяет карточку заявителя полями формы. Для физического лица имя пересчитывается из firstName и lastName.
// @Tags session
// @Accept json
// @Produce json
// @Param edit body ManualEditRequest true "Поля формы"
// @Success 200 {object} ApplicantResponse "Обновленный заявитель"
// @Failure 400 {object} middleware.ErrorResponse "Невалидное тело запроса"
// @Failure 404 {object} middleware.ErrorResponse "Таблица еще не импортирована"
// @Router /api/session/applicant [put]
func (s *Server) handleEditApplicant(c *gin.Context) {
	var req ManualEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Невалидное тело запроса", err))
		return
	}

	applicant, err := s.session.ApplyManualEdit(filing.ManualEdit{
		Name:          req.Name,
		Email:         req.Email,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		ZipCode:       req.ZipCode,
		Region:        req.Region,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
	})
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewNotFoundError("Заявитель еще не создан, импортируйте таблицу", err))
		return
	}

	c.JSON(http.StatusOK, ApplicantResponse{Applicant: applicant})
}

// handleSetPersonType обработчик переключения типа лица
// @Summary Переключить тип лица заявителя
// @Tags session
// @Accept json
// @Produce json
// @Param personType body PersonTypeRequest true "Тип лица"
// @Success 200 {object} ApplicantResponse "Обновленный заявитель"
// @Failure 404 {object} middleware.ErrorResponse "Таблица еще не импортирована"
// @Router /api/session/person-type [put]
func (s *Server) handleSetPersonType(c *gin.Context) {
	var req PersonTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("Невалидное тело запроса", err))
		return
	}

	applicant, err := s.session.SetPersonType(req.IsNaturalPerson)
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewNotFoundError("Заявитель еще не создан, импортируйте таблицу", err))
		return
	}

	c.JSON(http.StatusOK, ApplicantResponse{Applicant: applicant})
}

// handleUploadAttachments обработчик загрузки PDF вложений
// @Summary Загрузить вложения заявки
// @Description Принимает обязательный PDF заявления и опциональный PDF доверенности. Вложения хранятся в сессии до отправки.
// @Tags session
// @Accept multipart/form-data
// @Produce json
// @Param application_pdf formData file true "PDF заявления"
// @Param mandate_pdf formData file false "PDF доверенности"
// @Success 200 {object} AttachmentsResponse "Размеры принятых вложений"
// @Failure 400 {object} middleware.ErrorResponse "PDF заявления не передан"
// @Router /api/session/attachments [post]
func (s *Server) handleUploadAttachments(c *gin.Context) {
	applicationPDF, err := s.readUpload(c, "application_pdf")
	if err != nil {
		middleware.HandleHTTPError(c, apperrors.NewValidationError("PDF заявления не передан", err))
		return
	}

	mandatePDF, err := s.readUpload(c, "mandate_pdf")
	if err != nil {
		// Доверенность опциональна
		mandatePDF = nil
	}

	s.session.SetAttachments(applicationPDF, mandatePDF)

	c.JSON(http.StatusOK, AttachmentsResponse{
		ApplicationSize: len(applicationPDF),
		MandateAttached: mandatePDF != nil,
		MandateSize:     len(mandatePDF),
	})
}

// readUpload читает один файл multipart-формы с учетом лимита размера
func (s *Server) readUpload(c *gin.Context, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	if fileHeader.Size > s.config.MaxUploadSize {
		return nil, apperrors.NewValidationError("Файл слишком большой", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, s.config.MaxUploadSize+1))
}

package filing

import (
	"errors"
	"sync"

	"optoutserver/importer"
)

// Ошибки состояния сессии
var (
	ErrNoApplicant       = errors.New("no applicant in session")
	ErrSubmissionRunning = errors.New("submission is already running")
)

// Session состояние одной операторской сессии. Все данные живут
// только в памяти и теряются при перезапуске сервера.
// Единовременно в сессии существует не более одного заявителя;
// все изменения заявителя атомарны (замена целиком).
type Session struct {
	mu sync.RWMutex

	applicant *ApplicantInfo
	batch     *importer.ExtractedBatch

	applicationPDF []byte
	mandatePDF     []byte

	results []SubmissionResult

	// Флаг выполняющейся отправки: пользовательские операции
	// сериализованы, параллельные запуски отклоняются
	submissionRunning bool
}

// NewSession создает пустую сессию
func NewSession() *Session {
	return &Session{}
}

// SetBatch сохраняет результат импорта таблицы
func (s *Session) SetBatch(batch *importer.ExtractedBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = batch
}

// Batch возвращает текущую извлеченную партию (может быть nil)
func (s *Session) Batch() *importer.ExtractedBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch
}

// SetApplicant целиком заменяет текущего заявителя
func (s *Session) SetApplicant(info *ApplicantInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applicant = info
}

// Applicant возвращает копию текущего заявителя
func (s *Session) Applicant() (*ApplicantInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.applicant == nil {
		return nil, ErrNoApplicant
	}
	copied := *s.applicant
	if s.applicant.NaturalPersonDetails != nil {
		details := *s.applicant.NaturalPersonDetails
		copied.NaturalPersonDetails = &details
	}
	return &copied, nil
}

// ApplyManualEdit атомарно заменяет заявителя отредактированной версией
func (s *Session) ApplyManualEdit(edit ManualEdit) (*ApplicantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applicant == nil {
		return nil, ErrNoApplicant
	}
	s.applicant = s.applicant.ApplyManualEdit(edit)
	return s.applicant, nil
}

// SetPersonType переключает тип лица текущего заявителя
func (s *Session) SetPersonType(isNaturalPerson bool) (*ApplicantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applicant == nil {
		return nil, ErrNoApplicant
	}
	s.applicant = s.applicant.WithPersonType(isNaturalPerson)
	return s.applicant, nil
}

// SetAttachments сохраняет PDF заявления и опциональной доверенности
func (s *Session) SetAttachments(applicationPDF, mandatePDF []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if applicationPDF != nil {
		s.applicationPDF = applicationPDF
	}
	if mandatePDF != nil {
		s.mandatePDF = mandatePDF
	}
}

// Attachments возвращает сохраненные PDF (любой может быть nil)
func (s *Session) Attachments() (applicationPDF, mandatePDF []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applicationPDF, s.mandatePDF
}

// BeginSubmission захватывает эксклюзивный запуск отправки.
// Возвращает ErrSubmissionRunning, если отправка уже идет.
func (s *Session) BeginSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submissionRunning {
		return ErrSubmissionRunning
	}
	s.submissionRunning = true
	s.results = nil
	return nil
}

// EndSubmission снимает флаг выполняющейся отправки
func (s *Session) EndSubmission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissionRunning = false
}

// SubmissionRunning сообщает, идет ли отправка
func (s *Session) SubmissionRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submissionRunning
}

// AppendResult добавляет исход отправки одного EP
func (s *Session) AppendResult(result SubmissionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// Results возвращает копию списка исходов в порядке отправки
func (s *Session) Results() []SubmissionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]SubmissionResult, len(s.results))
	copy(results, s.results)
	return results
}

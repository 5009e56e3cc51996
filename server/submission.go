package server

import (
	"context"
	"encoding/json"
	"time"

	"optoutserver/filing"
)

// SubmissionJournal аудиторский журнал исходов отправки.
// Журнал только дописывается и никогда не восстанавливает сессию.
type SubmissionJournal interface {
	RecordResult(runID string, result filing.SubmissionResult) error
}

// SubmissionJob входные данные одного запуска отправки
type SubmissionJob struct {
	RunID          string
	Initials       string
	PatentNumbers  []string
	Applicant      filing.ApplicantInfo
	Mandator       *filing.MandatorInfo
	ApplicationPDF []byte
	MandatePDF     []byte
}

// SubmissionDriver последовательно отправляет заявки опт-аута.
// Отправка строго последовательная: это ограничивает нагрузку на
// внешний API и гарантирует, что порядок результатов совпадает с
// порядком входных номеров. Ошибка одного номера не останавливает
// обработку следующих; откатов и автоматических повторов партии нет.
type SubmissionDriver struct {
	client     *FilingClient
	journal    SubmissionJournal // Может быть nil
	fetchToken bool              // Получать access token перед каждой отправкой
	maxRetries int               // Повторы на сетевых ошибках; 0 повторяет наблюдаемое поведение без повторов
}

// NewSubmissionDriver создает драйвер отправки
func NewSubmissionDriver(client *FilingClient, journal SubmissionJournal, fetchToken bool, maxRetries int) *SubmissionDriver {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &SubmissionDriver{
		client:     client,
		journal:    journal,
		fetchToken: fetchToken,
		maxRetries: maxRetries,
	}
}

// SubmitAll отправляет заявку для каждого номера EP по очереди.
// onResult вызывается после каждого номера (для живого обновления
// таблицы результатов); может быть nil.
func (d *SubmissionDriver) SubmitAll(ctx context.Context, job SubmissionJob, onResult func(filing.SubmissionResult)) []filing.SubmissionResult {
	applicantJSON, err := json.Marshal(filing.NewPayloadApplicant(job.Applicant))
	if err != nil {
		// Невалидный заявитель делает невозможной всю партию
		results := make([]filing.SubmissionResult, 0, len(job.PatentNumbers))
		for _, ep := range job.PatentNumbers {
			result := failedResult(ep, "failed to encode applicant: "+err.Error())
			results = append(results, result)
			d.record(job.RunID, result, onResult)
		}
		return results
	}

	status := filing.StatusForInitials(job.Initials)

	var mandatorJSON []byte
	if status == filing.StatusNotRegisteredRepresentative && job.Mandator != nil {
		mandatorJSON, err = json.Marshal(job.Mandator)
		if err != nil {
			Logger.Error("Failed to encode mandator, submitting without it", "error", err)
			mandatorJSON = nil
		}
	}

	results := make([]filing.SubmissionResult, 0, len(job.PatentNumbers))
	for _, ep := range job.PatentNumbers {
		result := d.submitOne(ctx, job, ep, applicantJSON, mandatorJSON)
		results = append(results, result)
		d.record(job.RunID, result, onResult)
	}

	return results
}

// submitOne проводит один номер EP через состояния
// Pending -> (TokenFetch) -> Sent -> Succeeded/Failed
func (d *SubmissionDriver) submitOne(ctx context.Context, job SubmissionJob, ep string, applicantJSON, mandatorJSON []byte) filing.SubmissionResult {
	accessToken := ""
	if d.fetchToken {
		token, err := d.client.FetchToken(ctx, job.Initials)
		if err != nil {
			return failedResult(ep, err.Error())
		}
		accessToken = token
	}

	submitReq := SubmitRequest{
		Initials:       job.Initials,
		EPNumber:       ep,
		ApplicantJSON:  applicantJSON,
		MandatorJSON:   mandatorJSON,
		ApplicationPDF: job.ApplicationPDF,
		MandatePDF:     job.MandatePDF,
		AccessToken:    accessToken,
	}

	var resp *SubmitResponse
	var statusCode int
	var err error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		resp, statusCode, err = d.client.Submit(ctx, submitReq)
		if err == nil {
			break
		}
		Logger.Warn("Submit attempt failed",
			"ep", ep,
			"attempt", attempt+1,
			"error", err,
		)
	}
	if err != nil {
		// Сетевой сбой без ответа
		return failedResult(ep, "network error: "+err.Error())
	}

	// Ответ с полем error или не-2xx статусом считается отказом
	if statusCode < 200 || statusCode >= 300 || resp.Error != "" {
		message := resp.Error
		if message == "" {
			message = resp.Message
		}
		if message == "" {
			message = "Unknown response"
		}
		return failedResult(ep, message)
	}

	return filing.SubmissionResult{
		PatentNumber:  ep,
		OK:            true,
		RequestID:     resp.RequestID,
		ReceptionTime: resp.ReceptionTime,
		Timestamp:     time.Now(),
	}
}

// record дописывает результат в журнал и уведомляет подписчика
func (d *SubmissionDriver) record(runID string, result filing.SubmissionResult, onResult func(filing.SubmissionResult)) {
	if d.journal != nil {
		if err := d.journal.RecordResult(runID, result); err != nil {
			Logger.Error("Failed to record submission result", "error", err, "ep", result.PatentNumber)
		}
	}
	if onResult != nil {
		onResult(result)
	}
}

func failedResult(ep, message string) filing.SubmissionResult {
	return filing.SubmissionResult{
		PatentNumber: ep,
		OK:           false,
		ErrorMessage: message,
		Timestamp:    time.Now(),
	}
}

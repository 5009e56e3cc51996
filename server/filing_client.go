package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Ошибки клиента filing API
var (
	ErrTokenFetchFailed = errors.New("token fetch failed")
	ErrReceiptNotFound  = errors.New("receipt not found")
)

// FilingClient клиент внешнего filing API суда: получение токена,
// отправка заявок опт-аута, загрузка квитанций, статус режима.
type FilingClient struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *HTTPCircuitBreaker
	limiter        *rate.Limiter // Ограничивает нагрузку на внешний API
}

// SubmitRequest параметры отправки одной заявки
type SubmitRequest struct {
	Initials       string
	EPNumber       string
	ApplicantJSON  []byte
	MandatorJSON   []byte // nil, когда доверитель отсутствует
	ApplicationPDF []byte
	MandatePDF     []byte // nil, когда доверенность не приложена
	AccessToken    string // Опциональный bearer-токен
}

// SubmitResponse ответ filing API на отправку заявки
type SubmitResponse struct {
	RequestID     string `json:"requestId"`
	Message       string `json:"message"`
	Error         string `json:"error"`
	ReceptionTime string `json:"receptionTime"`
}

// tokenResponse ответ POST /token
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// AuthResponse ответ POST /auth
type AuthResponse struct {
	Allowed bool   `json:"allowed"`
	Email   string `json:"email,omitempty"`
}

// ModeResponse ответ GET /mode
type ModeResponse struct {
	Mode  string `json:"mode"`
	Emoji string `json:"emoji"`
}

// NewFilingClient создает клиент filing API
func NewFilingClient(baseURL string, requestsPerSecond float64) *FilingClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1 // 1 запрос в секунду по умолчанию
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxConnsPerHost:     5,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 5,
	}

	return &FilingClient{
		baseURL:        baseURL,
		circuitBreaker: NewHTTPCircuitBreaker(),
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

// FetchToken запрашивает access token по инициалам
func (c *FilingClient) FetchToken(ctx context.Context, initials string) (string, error) {
	jsonData, err := json.Marshal(map[string]string{"initials": initials})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", ErrTokenFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/token", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrTokenFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", ErrTokenFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTokenFetchFailed, err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrTokenFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		msg := tokenResp.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", ErrTokenFetchFailed, msg)
	}

	return tokenResp.AccessToken, nil
}

// Submit отправляет одну заявку опт-аута через multipart форму.
// Возвращает ответ API и HTTP статус; сетевые ошибки возвращаются error.
// Интерпретация результата (номер заявки или сообщение об ошибке)
// остается за вызывающим.
func (c *FilingClient) Submit(ctx context.Context, submitReq SubmitRequest) (*SubmitResponse, int, error) {
	// Ограничитель скорости и circuit breaker защищают внешний API
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter wait: %w", err)
	}
	if !c.circuitBreaker.CanProceed() {
		return nil, 0, fmt.Errorf("circuit breaker is open (state: %s), filing API calls are temporarily blocked", c.circuitBreaker.GetState())
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Имена полей формы зафиксированы внешним API
	if err := writer.WriteField("initials", submitReq.Initials); err != nil {
		return nil, 0, fmt.Errorf("failed to write initials field: %w", err)
	}
	if err := writer.WriteField("ep_number", submitReq.EPNumber); err != nil {
		return nil, 0, fmt.Errorf("failed to write ep_number field: %w", err)
	}
	if err := writer.WriteField("applicant", string(submitReq.ApplicantJSON)); err != nil {
		return nil, 0, fmt.Errorf("failed to write applicant field: %w", err)
	}
	if submitReq.MandatorJSON != nil {
		if err := writer.WriteField("mandator", string(submitReq.MandatorJSON)); err != nil {
			return nil, 0, fmt.Errorf("failed to write mandator field: %w", err)
		}
	}

	appPart, err := writer.CreateFormFile("application_pdf", fmt.Sprintf("Optout_%s.pdf", submitReq.EPNumber))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create application_pdf part: %w", err)
	}
	if _, err := appPart.Write(submitReq.ApplicationPDF); err != nil {
		return nil, 0, fmt.Errorf("failed to write application_pdf: %w", err)
	}

	if submitReq.MandatePDF != nil {
		mandatePart, err := writer.CreateFormFile("mandate_pdf", fmt.Sprintf("Mandate_%s.pdf", submitReq.EPNumber))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create mandate_pdf part: %w", err)
		}
		if _, err := mandatePart.Write(submitReq.MandatePDF); err != nil {
			return nil, 0, fmt.Errorf("failed to write mandate_pdf: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/submit", &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if submitReq.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+submitReq.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.circuitBreaker.RecordFailure()
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.circuitBreaker.RecordFailure()
	} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.circuitBreaker.RecordSuccess()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var submitResp SubmitResponse
	if err := json.Unmarshal(body, &submitResp); err != nil {
		// Тело без валидного JSON не фатально: статус ответа уже известен
		Logger.Warn("Failed to decode submit response", "error", err, "body", string(body))
	}

	return &submitResp, resp.StatusCode, nil
}

// FetchReceipt загружает PDF квитанцию по номеру заявки
func (c *FilingClient) FetchReceipt(ctx context.Context, initials, requestID, ep string) ([]byte, error) {
	query := url.Values{}
	query.Set("initials", initials)
	query.Set("requestId", requestID)
	query.Set("ep", ep)

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/receipt?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, requestID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("receipt API returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Auth проверяет токен доступа оператора через внешний сервис
func (c *FilingClient) Auth(ctx context.Context, token string) (*AuthResponse, error) {
	jsonData, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/auth", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth API returned status %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &authResp, nil
}

// Mode возвращает текущий режим filing API (LIVE или тестовый)
func (c *FilingClient) Mode(ctx context.Context) (*ModeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/mode", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mode API returned status %d", resp.StatusCode)
	}

	var modeResp ModeResponse
	if err := json.NewDecoder(resp.Body).Decode(&modeResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &modeResp, nil
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"optoutserver/filing"
)

// ErrClassificationFailed ошибка классификации адреса/имени во внешнем
// сервисе. Импорт партии при этой ошибке прерывается целиком: частично
// заполненный заявитель не создается, прежний остается без изменений.
var ErrClassificationFailed = errors.New("classification failed")

// ParseClient клиент внешнего сервиса нормализации адресов и имен
type ParseClient struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *HTTPCircuitBreaker

	// classifyNameSeparately включает legacy-режим двух независимых
	// вызовов: /parse-address и /parse-name. Для юридических лиц вызов
	// /parse-name в этом режиме пропускается.
	classifyNameSeparately bool
}

// parseAddressRequest тело запроса POST /parse-address
type parseAddressRequest struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// parseNameRequest тело запроса POST /parse-name (legacy-режим)
type parseNameRequest struct {
	Name string `json:"name"`
}

// parseAddressResponse ответ сервиса нормализации.
// Поле страны/региона в разных версиях сервиса называлось state или
// country; клиент сливает их в одно каноничное значение.
type parseAddressResponse struct {
	Address              string                       `json:"address"`
	City                 string                       `json:"city"`
	ZipCode              string                       `json:"zipCode"`
	State                string                       `json:"state"`
	Country              string                       `json:"country"`
	IsNaturalPerson      *bool                        `json:"isNaturalPerson"`
	NaturalPersonDetails *filing.NaturalPersonDetails `json:"naturalPersonDetails"`
	LegalEntityDetails   *filing.LegalEntityDetails   `json:"legalEntityDetails"`
	Error                string                       `json:"error"`
}

// parseNameResponse ответ POST /parse-name
type parseNameResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Error     string `json:"error"`
}

// NewParseClient создает клиент сервиса нормализации
func NewParseClient(baseURL string, classifyNameSeparately bool) *ParseClient {
	// Оптимизированный HTTP Transport с connection pooling
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxConnsPerHost:     5,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}

	return &ParseClient{
		baseURL:                baseURL,
		classifyNameSeparately: classifyNameSeparately,
		circuitBreaker:         NewHTTPCircuitBreaker(),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Classify отправляет сырые строки адреса и имени на нормализацию и
// возвращает структурированные поля заявителя.
//
// Политика слияния региона детерминированная: явное поле state
// предпочитается country, при отсутствии обоих регион остается пустым.
func (c *ParseClient) Classify(ctx context.Context, rawAddress, rawName string, isNaturalPerson bool) (*filing.Classification, error) {
	if c.classifyNameSeparately {
		return c.classifyTwoCalls(ctx, rawAddress, rawName, isNaturalPerson)
	}
	return c.classifyCombined(ctx, rawAddress, rawName)
}

// classifyCombined выполняет один комбинированный вызов /parse-address
func (c *ParseClient) classifyCombined(ctx context.Context, rawAddress, rawName string) (*filing.Classification, error) {
	resp, err := c.parseAddress(ctx, parseAddressRequest{Address: rawAddress, Name: rawName})
	if err != nil {
		return nil, err
	}

	classification := &filing.Classification{
		StreetAddress:        resp.Address,
		City:                 resp.City,
		ZipCode:              resp.ZipCode,
		Region:               mergeRegion(resp.State, resp.Country),
		IsNaturalPerson:      resp.IsNaturalPerson,
		NaturalPersonDetails: resp.NaturalPersonDetails,
	}
	if resp.LegalEntityDetails != nil {
		classification.LegalEntityName = resp.LegalEntityDetails.Name
	}
	return classification, nil
}

// classifyTwoCalls выполняет два независимых вызова (legacy-режим).
// Вызов /parse-name пропускается, когда заранее выбран тип
// "юридическое лицо": разбивать название компании на имя и фамилию бессмысленно.
func (c *ParseClient) classifyTwoCalls(ctx context.Context, rawAddress, rawName string, isNaturalPerson bool) (*filing.Classification, error) {
	addrResp, err := c.parseAddress(ctx, parseAddressRequest{Address: rawAddress})
	if err != nil {
		return nil, err
	}

	classification := &filing.Classification{
		StreetAddress: addrResp.Address,
		City:          addrResp.City,
		ZipCode:       addrResp.ZipCode,
		Region:        mergeRegion(addrResp.State, addrResp.Country),
	}

	if isNaturalPerson {
		nameResp, err := c.parseName(ctx, rawName)
		if err != nil {
			return nil, err
		}
		classification.NaturalPersonDetails = &filing.NaturalPersonDetails{
			FirstName: nameResp.FirstName,
			LastName:  nameResp.LastName,
		}
	}

	return classification, nil
}

// parseAddress выполняет POST /parse-address
func (c *ParseClient) parseAddress(ctx context.Context, reqBody parseAddressRequest) (*parseAddressResponse, error) {
	var response parseAddressResponse
	if err := c.post(ctx, "/parse-address", reqBody, &response); err != nil {
		return nil, err
	}
	// Ответ с явным полем error считается отказом классификации
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrClassificationFailed, response.Error)
	}
	return &response, nil
}

// parseName выполняет POST /parse-name (legacy-режим)
func (c *ParseClient) parseName(ctx context.Context, name string) (*parseNameResponse, error) {
	var response parseNameResponse
	if err := c.post(ctx, "/parse-name", parseNameRequest{Name: name}, &response); err != nil {
		return nil, err
	}
	if response.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrClassificationFailed, response.Error)
	}
	return &response, nil
}

// post выполняет JSON POST с учетом circuit breaker
func (c *ParseClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	if !c.circuitBreaker.CanProceed() {
		return fmt.Errorf("%w: circuit breaker is open (state: %s), parse API calls are temporarily blocked",
			ErrClassificationFailed, c.circuitBreaker.GetState())
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.circuitBreaker.RecordFailure()
		return fmt.Errorf("%w: request failed: %v", ErrClassificationFailed, err)
	}
	defer resp.Body.Close()

	// Учитываем статус ответа для circuit breaker
	if resp.StatusCode >= 500 {
		c.circuitBreaker.RecordFailure()
	} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.circuitBreaker.RecordSuccess()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrClassificationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: parse API returned status %d: %s", ErrClassificationFailed, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		Logger.Error("Failed to decode parse API response", "error", err, "body", string(body))
		return fmt.Errorf("%w: failed to decode response: %v", ErrClassificationFailed, err)
	}

	return nil
}

// mergeRegion сливает state и country в каноничный регион.
// Явное поле state предпочитается country.
func mergeRegion(state, country string) string {
	if state != "" {
		return state
	}
	return country
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestClassify_Combined комбинированный вызов разбирает адрес и имя за один запрос
func TestClassify_Combined(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"address":         "Hauptstrasse 5",
			"city":            "Munich",
			"zipCode":         "80331",
			"state":           "Bavaria",
			"isNaturalPerson": false,
			"legalEntityDetails": map[string]string{
				"name": "Acme GmbH",
			},
		})
	}))
	defer server.Close()

	client := NewParseClient(server.URL, false)
	classification, err := client.Classify(context.Background(), "Hauptstrasse 5, Munich", "Acme GmbH", false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if gotPath != "/parse-address" {
		t.Errorf("Expected call to /parse-address, got %s", gotPath)
	}
	if gotBody["name"] != "Acme GmbH" {
		t.Errorf("Expected name in combined request, got %v", gotBody["name"])
	}

	if classification.StreetAddress != "Hauptstrasse 5" || classification.City != "Munich" {
		t.Errorf("Unexpected address fields: %+v", classification)
	}
	if classification.Region != "Bavaria" {
		t.Errorf("Expected region Bavaria, got %q", classification.Region)
	}
	if classification.IsNaturalPerson == nil || *classification.IsNaturalPerson {
		t.Error("Expected explicit legal entity classification")
	}
	if classification.LegalEntityName != "Acme GmbH" {
		t.Errorf("Expected legal entity name Acme GmbH, got %q", classification.LegalEntityName)
	}
}

// TestClassify_RegionMergePolicy state предпочитается country, при
// отсутствии обоих регион пустой
func TestClassify_RegionMergePolicy(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		country string
		want    string
	}{
		{"state wins", "Bavaria", "Germany", "Bavaria"},
		{"country fallback", "", "Germany", "Germany"},
		{"both empty", "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"state":   tc.state,
					"country": tc.country,
				})
			}))
			defer server.Close()

			client := NewParseClient(server.URL, false)
			classification, err := client.Classify(context.Background(), "addr", "name", true)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if classification.Region != tc.want {
				t.Errorf("Expected region %q, got %q", tc.want, classification.Region)
			}
		})
	}
}

// TestClassify_ErrorField ответ с полем error превращается в ErrClassificationFailed
func TestClassify_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"error": "unparseable address"})
	}))
	defer server.Close()

	client := NewParseClient(server.URL, false)
	_, err := client.Classify(context.Background(), "???", "???", false)
	if !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("Expected ErrClassificationFailed, got %v", err)
	}
}

// TestClassify_NonOKStatus не-2xx статус превращается в ErrClassificationFailed
func TestClassify_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewParseClient(server.URL, false)
	_, err := client.Classify(context.Background(), "addr", "name", false)
	if !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("Expected ErrClassificationFailed, got %v", err)
	}
}

// TestClassify_TwoCallMode legacy-режим: два вызова для физического
// лица, один для юридического
func TestClassify_TwoCallMode(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/parse-address":
			json.NewEncoder(w).Encode(map[string]string{
				"address": "Main St 1",
				"city":    "Dublin",
				"country": "Ireland",
			})
		case "/parse-name":
			json.NewEncoder(w).Encode(map[string]string{
				"firstName": "Mary",
				"lastName":  "Byrne",
			})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewParseClient(server.URL, true)

	// Физическое лицо: адрес и имя разбираются отдельно
	classification, err := client.Classify(context.Background(), "Main St 1, Dublin", "Mary Byrne", true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/parse-address" || paths[1] != "/parse-name" {
		t.Fatalf("Expected /parse-address then /parse-name, got %v", paths)
	}
	if classification.NaturalPersonDetails == nil ||
		classification.NaturalPersonDetails.FirstName != "Mary" ||
		classification.NaturalPersonDetails.LastName != "Byrne" {
		t.Errorf("Unexpected name details: %+v", classification.NaturalPersonDetails)
	}
	if classification.Region != "Ireland" {
		t.Errorf("Expected region Ireland, got %q", classification.Region)
	}

	// Юридическое лицо: вызов /parse-name пропускается
	paths = nil
	classification, err = client.Classify(context.Background(), "Main St 1, Dublin", "Acme Ltd", false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/parse-address" {
		t.Fatalf("Expected single /parse-address call for legal entity, got %v", paths)
	}
	if classification.NaturalPersonDetails != nil {
		t.Error("Expected no name details for legal entity in two-call mode")
	}
}

// TestClassify_CircuitBreakerOpens серия сбоев открывает circuit breaker
func TestClassify_CircuitBreakerOpens(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewParseClient(server.URL, false)

	// Доводим breaker до порога отказов
	for i := 0; i < 10; i++ {
		client.Classify(context.Background(), "addr", "name", false)
	}

	callsBefore := calls
	_, err := client.Classify(context.Background(), "addr", "name", false)
	if !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("Expected ErrClassificationFailed from open breaker, got %v", err)
	}
	if calls != callsBefore {
		t.Errorf("Expected no outbound call while breaker is open, got %d extra", calls-callsBefore)
	}
}

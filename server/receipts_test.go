package server

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"optoutserver/filing"
)

// TestBundleReceipts_SkipsMissingAndFailed архив содержит только
// квитанции успешных отправок, готовые на стороне внешнего API
func TestBundleReceipts_SkipsMissingAndFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("requestId") {
		case "R1":
			w.Write([]byte("%PDF receipt one"))
		case "R2":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("Unexpected requestId %q", r.URL.Query().Get("requestId"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	bundler := NewReceiptBundler(NewFilingClient(server.URL, 100))
	results := []filing.SubmissionResult{
		{PatentNumber: "EP1111111", OK: true, RequestID: "R1"},
		{PatentNumber: "EP2222222", OK: true, RequestID: "R2"},
		{PatentNumber: "EP3333333", OK: false, ErrorMessage: "network error"},
	}

	var buf bytes.Buffer
	added, err := bundler.BundleReceipts(context.Background(), &buf, "YH", results)
	if err != nil {
		t.Fatalf("BundleReceipts failed: %v", err)
	}
	if added != 1 {
		t.Fatalf("Expected 1 receipt in archive, got %d", added)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	if len(reader.File) != 1 {
		t.Fatalf("Expected 1 archive entry, got %d", len(reader.File))
	}
	if reader.File[0].Name != "Receipt_EP1111111.pdf" {
		t.Errorf("Expected entry Receipt_EP1111111.pdf, got %s", reader.File[0].Name)
	}

	rc, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("Failed to open archive entry: %v", err)
	}
	defer rc.Close()
	content := make([]byte, 16)
	n, _ := rc.Read(content)
	if string(content[:n]) != "%PDF receipt one" {
		t.Errorf("Unexpected receipt content %q", string(content[:n]))
	}
}

// TestBundleReceipts_EmptyResults пустой набор результатов дает валидный пустой архив
func TestBundleReceipts_EmptyResults(t *testing.T) {
	bundler := NewReceiptBundler(NewFilingClient("http://127.0.0.1:1", 100))

	var buf bytes.Buffer
	added, err := bundler.BundleReceipts(context.Background(), &buf, "YH", nil)
	if err != nil {
		t.Fatalf("BundleReceipts failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected 0 receipts, got %d", added)
	}
	if _, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		t.Errorf("Expected valid empty archive: %v", err)
	}
}

package filing

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func testApplicant(natural bool) ApplicantInfo {
	info := ApplicantInfo{
		IsNaturalPerson: natural,
		Name:            "Jane Doe",
		Address: Address{
			StreetAddress: "12 Main St",
			City:          "Springfield",
			ZipCode:       "12345",
			Region:        "CA",
		},
	}
	if natural {
		info.NaturalPersonDetails = &NaturalPersonDetails{FirstName: "Jane", LastName: "Doe"}
	}
	return info
}

// TestStatusForInitials проверяет строгое распознавание единственного
// кода зарегистрированного представителя
func TestStatusForInitials(t *testing.T) {
	if got := StatusForInitials("YH"); got != StatusRegisteredRepresentative {
		t.Errorf("Expected registered status for YH, got %s", got)
	}

	notRegistered := []string{"yh", "YH ", " YH", "", "AB", "Yh"}
	for _, initials := range notRegistered {
		if got := StatusForInitials(initials); got != StatusNotRegisteredRepresentative {
			t.Errorf("Initials %q: expected not-registered status, got %s", initials, got)
		}
	}
}

// TestBuildPayloads_OnePerPatentNumber проверяет сборку по одной заявке на EP
func TestBuildPayloads_OnePerPatentNumber(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1111111", "EP2222222", "EP1111111"},
		Initials:       "YH",
		ApplicationPDF: []byte("%PDF-1.4 application"),
	})

	if len(payloads) != 3 {
		t.Fatalf("Expected 3 payloads (duplicates retained), got %d", len(payloads))
	}
	for i, ep := range []string{"EP1111111", "EP2222222", "EP1111111"} {
		if payloads[i].Patent.PatentNumber != ep {
			t.Errorf("Payload %d: expected patent %s, got %s", i, ep, payloads[i].Patent.PatentNumber)
		}
		if payloads[i].InternalReference != ep {
			t.Errorf("Payload %d: internalReference must equal patent number", i)
		}
	}
}

// TestBuildPayloads_Deterministic проверяет, что сборка чистая:
// одинаковые входы дают байт-в-байт одинаковый JSON
func TestBuildPayloads_Deterministic(t *testing.T) {
	input := BuildInput{
		Applicant:      testApplicant(false),
		PatentNumbers:  []string{"EP1234567", "EP7654321"},
		Initials:       "AB",
		ApplicationPDF: []byte("application pdf bytes"),
		MandatePDF:     []byte("mandate pdf bytes"),
		Mandator: BuildMandator(MandatorFields{
			FirstName: "Max",
			LastName:  "Mustermann",
			Email:     "max@example.com",
		}),
	}

	first, err := json.Marshal(BuildPayloads(input))
	if err != nil {
		t.Fatalf("Failed to marshal payloads: %v", err)
	}
	second, err := json.Marshal(BuildPayloads(input))
	if err != nil {
		t.Fatalf("Failed to marshal payloads: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("BuildPayloads() must be deterministic for identical inputs")
	}
}

// TestBuildPayloads_WireFieldNames проверяет имена полей, зафиксированные API суда
func TestBuildPayloads_WireFieldNames(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "YH",
		ApplicationPDF: []byte("pdf"),
	})

	raw, err := json.Marshal(payloads[0])
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	encoded := string(raw)

	for _, field := range []string{
		`"statusPersonLodgingApplication"`,
		`"internalReference"`,
		`"isNaturalPerson"`,
		`"contactAddress"`,
		`"naturalPersonDetails"`,
		`"patentNumber"`,
		`"documentType"`,
		`"documentTitle"`,
		`"documentDescription"`,
		`"mimeType"`,
		`"zipCode"`,
		`"state"`,
	} {
		if !strings.Contains(encoded, field) {
			t.Errorf("Payload JSON must contain %s, got: %s", field, encoded)
		}
	}

	// Внутреннее имя Region не должно утекать во внешний формат
	if strings.Contains(encoded, "region") {
		t.Error("Canonical field name 'region' must serialize as 'state'")
	}
}

// TestBuildPayloads_PersonTypeExclusive проверяет, что присутствует ровно
// одно из naturalPersonDetails / legalEntityDetails
func TestBuildPayloads_PersonTypeExclusive(t *testing.T) {
	natural := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "YH",
		ApplicationPDF: []byte("pdf"),
	})
	if natural[0].Applicant.NaturalPersonDetails == nil {
		t.Error("Natural person payload must carry naturalPersonDetails")
	}
	if natural[0].Applicant.LegalEntityDetails != nil {
		t.Error("Natural person payload must not carry legalEntityDetails")
	}

	legal := BuildPayloads(BuildInput{
		Applicant:      testApplicant(false),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "YH",
		ApplicationPDF: []byte("pdf"),
	})
	if legal[0].Applicant.LegalEntityDetails == nil {
		t.Error("Legal entity payload must carry legalEntityDetails")
	}
	if legal[0].Applicant.LegalEntityDetails != nil && legal[0].Applicant.LegalEntityDetails.Name != "Jane Doe" {
		t.Errorf("Legal entity name must come from applicant name, got %q", legal[0].Applicant.LegalEntityDetails.Name)
	}
	if legal[0].Applicant.NaturalPersonDetails != nil {
		t.Error("Legal entity payload must not carry naturalPersonDetails")
	}
}

// TestBuildPayloads_MandatorOmittedWhenEmpty проверяет, что пустой блок
// доверителя опускается даже при статусе незарегистрированного представителя
func TestBuildPayloads_MandatorOmittedWhenEmpty(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "AB",
		ApplicationPDF: []byte("pdf"),
		Mandator:       BuildMandator(MandatorFields{}),
	})

	if payloads[0].Status != StatusNotRegisteredRepresentative {
		t.Fatalf("Expected not-registered status, got %s", payloads[0].Status)
	}
	if payloads[0].Mandator != nil {
		t.Error("Empty mandator must be omitted from payload")
	}

	raw, _ := json.Marshal(payloads[0])
	if strings.Contains(string(raw), `"mandator"`) {
		t.Error("Payload JSON must not contain mandator key when all fields are empty")
	}
}

// TestBuildPayloads_MandatorDroppedForRegistered проверяет, что доверитель
// не включается для зарегистрированного представителя
func TestBuildPayloads_MandatorDroppedForRegistered(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "YH",
		ApplicationPDF: []byte("pdf"),
		MandatePDF:     []byte("mandate"),
		Mandator:       BuildMandator(MandatorFields{FirstName: "Max"}),
	})

	if payloads[0].Mandator != nil {
		t.Error("Registered representative payload must not carry mandator")
	}
	if len(payloads[0].Documents) != 1 {
		t.Errorf("Registered representative payload must carry only the Application document, got %d", len(payloads[0].Documents))
	}
}

// TestBuildPayloads_MandateDocumentConditions проверяет условия включения
// документа Mandate: нужен и файл доверенности, и непустой доверитель
func TestBuildPayloads_MandateDocumentConditions(t *testing.T) {
	base := BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "AB",
		ApplicationPDF: []byte("pdf"),
	}

	// Файл есть, доверителя нет
	withFileOnly := base
	withFileOnly.MandatePDF = []byte("mandate")
	payloads := BuildPayloads(withFileOnly)
	if len(payloads[0].Documents) != 1 {
		t.Errorf("Mandate document requires a mandator block, got %d documents", len(payloads[0].Documents))
	}

	// Доверитель есть, файла нет
	withMandatorOnly := base
	withMandatorOnly.Mandator = BuildMandator(MandatorFields{LastName: "Mustermann"})
	payloads = BuildPayloads(withMandatorOnly)
	if len(payloads[0].Documents) != 1 {
		t.Errorf("Mandate document requires a mandate file, got %d documents", len(payloads[0].Documents))
	}
	if payloads[0].Mandator == nil {
		t.Error("Partially filled mandator must still be included")
	}

	// И файл, и доверитель
	withBoth := base
	withBoth.MandatePDF = []byte("mandate")
	withBoth.Mandator = BuildMandator(MandatorFields{FirstName: "Max", LastName: "Mustermann"})
	payloads = BuildPayloads(withBoth)
	if len(payloads[0].Documents) != 2 {
		t.Fatalf("Expected Application and Mandate documents, got %d", len(payloads[0].Documents))
	}
	if payloads[0].Documents[1].DocumentType != "Mandate" {
		t.Errorf("Second document must be Mandate, got %s", payloads[0].Documents[1].DocumentType)
	}
}

// TestBuildPayloads_ContactAddressNeverNull проверяет, что contactAddress
// всегда сериализуется заполненным объектом
func TestBuildPayloads_ContactAddressNeverNull(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      ApplicantInfo{IsNaturalPerson: false, Name: "Acme"},
		PatentNumbers:  []string{"EP1234567"},
		Initials:       "AB",
		ApplicationPDF: []byte("pdf"),
	})

	raw, err := json.Marshal(payloads[0])
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	if !strings.Contains(string(raw), `"contactAddress":{"address":"","city":"","zipCode":"","state":""}`) {
		t.Errorf("contactAddress must be an object with four empty-string fields, got: %s", raw)
	}
}

// TestBuildMandator проверяет политику "все пусто - блок отсутствует"
func TestBuildMandator(t *testing.T) {
	if m := BuildMandator(MandatorFields{}); m != nil {
		t.Error("BuildMandator() must return nil when every field is empty")
	}
	if m := BuildMandator(MandatorFields{City: "Munich"}); m == nil {
		t.Error("BuildMandator() must build the block when any field is non-empty")
	}
}

// TestBuildPayloads_DocumentTitles проверяет формат заголовков и имен файлов
func TestBuildPayloads_DocumentTitles(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		Applicant:      testApplicant(true),
		PatentNumbers:  []string{"EP9999999"},
		Initials:       "YH",
		ApplicationPDF: []byte("pdf"),
	})

	doc := payloads[0].Documents[0]
	if doc.DocumentTitle != "Opt-out EP9999999" {
		t.Errorf("Expected title 'Opt-out EP9999999', got %q", doc.DocumentTitle)
	}
	if doc.Attachments[0].Filename != "Optout_EP9999999.pdf" {
		t.Errorf("Expected filename 'Optout_EP9999999.pdf', got %q", doc.Attachments[0].Filename)
	}
	if doc.Attachments[0].Language != "en" || doc.Attachments[0].MimeType != "application/pdf" {
		t.Error("Attachment must carry language 'en' and mimeType 'application/pdf'")
	}
}

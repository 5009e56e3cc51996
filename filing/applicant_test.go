package filing

import (
	"testing"

	"optoutserver/importer"
)

// TestNewApplicantFromClassification проверяет сборку заявителя из ответа классификатора
func TestNewApplicantFromClassification(t *testing.T) {
	c := Classification{
		StreetAddress:        "12 Main St",
		City:                 "Springfield",
		ZipCode:              "12345",
		Region:               "CA",
		NaturalPersonDetails: &NaturalPersonDetails{FirstName: "Jane", LastName: "Doe"},
	}

	info := NewApplicantFromClassification(c, true, "Jane Doe", "jane@example.com")

	if !info.IsNaturalPerson {
		t.Error("Expected natural person")
	}
	if info.Name != "Jane Doe" {
		t.Errorf("Expected fallback name, got %q", info.Name)
	}
	if info.Email != "jane@example.com" {
		t.Errorf("Expected fallback email, got %q", info.Email)
	}
	if info.Address.Region != "CA" {
		t.Errorf("Expected region CA, got %q", info.Address.Region)
	}
	if info.NaturalPersonDetails == nil || info.NaturalPersonDetails.FirstName != "Jane" {
		t.Error("Expected natural person details from classification")
	}
}

// TestNewApplicantFromClassification_ExplicitTypeWins проверяет, что явный
// ответ сервиса о типе лица перекрывает предвыбор оператора
func TestNewApplicantFromClassification_ExplicitTypeWins(t *testing.T) {
	legal := false
	c := Classification{
		IsNaturalPerson: &legal,
		LegalEntityName: "Acme Holdings B.V.",
	}

	info := NewApplicantFromClassification(c, true, "Acme", "")

	if info.IsNaturalPerson {
		t.Error("Explicit classifier answer must override the preselected type")
	}
	if info.Name != "Acme Holdings B.V." {
		t.Errorf("Expected legal entity name from classifier, got %q", info.Name)
	}
	if info.NaturalPersonDetails != nil {
		t.Error("Legal entity must not carry naturalPersonDetails")
	}
}

// TestApplyManualEdit_AtomicReplace проверяет атомарную замену при редактировании
func TestApplyManualEdit_AtomicReplace(t *testing.T) {
	original := &ApplicantInfo{
		IsNaturalPerson: true,
		Name:            "Jane Doe",
		NaturalPersonDetails: &NaturalPersonDetails{
			FirstName: "Jane",
			LastName:  "Doe",
		},
		Address: Address{StreetAddress: "Old St", City: "Old City"},
	}

	updated := original.ApplyManualEdit(ManualEdit{
		Name:          "ignored",
		StreetAddress: "New St",
		FirstName:     "Janet",
		LastName:      "Roe",
	})

	// Имя пересчитывается из firstName + lastName
	if updated.Name != "Janet Roe" {
		t.Errorf("Expected recomputed name 'Janet Roe', got %q", updated.Name)
	}
	// Адрес заменяется целиком, а не сливается
	if updated.Address.City != "" {
		t.Errorf("Address must be replaced wholesale, got city %q", updated.Address.City)
	}
	// Исходный объект не изменяется
	if original.Name != "Jane Doe" || original.Address.City != "Old City" {
		t.Error("ApplyManualEdit() must not mutate the original applicant")
	}
}

// TestApplyManualEdit_LegalEntity проверяет редактирование юридического лица
func TestApplyManualEdit_LegalEntity(t *testing.T) {
	original := &ApplicantInfo{IsNaturalPerson: false, Name: "Old Name"}

	updated := original.ApplyManualEdit(ManualEdit{
		Name:          "Acme GmbH",
		StreetAddress: "Hauptstrasse 1",
	})

	if updated.Name != "Acme GmbH" {
		t.Errorf("Expected edited name, got %q", updated.Name)
	}
	if updated.NaturalPersonDetails != nil {
		t.Error("Legal entity edit must not create naturalPersonDetails")
	}
}

// TestWithPersonType проверяет переключение типа лица
func TestWithPersonType(t *testing.T) {
	natural := &ApplicantInfo{
		IsNaturalPerson:      true,
		Name:                 "Jane Doe",
		NaturalPersonDetails: &NaturalPersonDetails{FirstName: "Jane", LastName: "Doe"},
		Address:              Address{City: "Springfield"},
	}

	legal := natural.WithPersonType(false)
	if legal.IsNaturalPerson {
		t.Error("Expected legal entity after toggle")
	}
	if legal.NaturalPersonDetails != nil {
		t.Error("Toggle to legal entity must clear naturalPersonDetails")
	}
	// Имя и адрес сохраняются
	if legal.Name != "Jane Doe" || legal.Address.City != "Springfield" {
		t.Error("Toggle must keep name and address")
	}

	back := legal.WithPersonType(true)
	if back.NaturalPersonDetails != nil {
		t.Error("Toggle back to natural person leaves details for the edit form to repopulate")
	}
}

// TestSession_SingleApplicantLifecycle проверяет жизненный цикл заявителя в сессии
func TestSession_SingleApplicantLifecycle(t *testing.T) {
	s := NewSession()

	if _, err := s.Applicant(); err != ErrNoApplicant {
		t.Errorf("Expected ErrNoApplicant for empty session, got %v", err)
	}
	if _, err := s.ApplyManualEdit(ManualEdit{}); err != ErrNoApplicant {
		t.Errorf("Expected ErrNoApplicant for edit without applicant, got %v", err)
	}

	s.SetApplicant(NewApplicantFromClassification(Classification{City: "Springfield"}, true, "Jane Doe", ""))

	info, err := s.Applicant()
	if err != nil {
		t.Fatalf("Applicant() failed: %v", err)
	}
	if info.Address.City != "Springfield" {
		t.Errorf("Expected stored applicant, got %+v", info)
	}

	// Возвращается копия: мутация снаружи не влияет на сессию
	info.Name = "mutated"
	stored, _ := s.Applicant()
	if stored.Name != "Jane Doe" {
		t.Error("Applicant() must return a copy")
	}
}

// TestSession_SubmissionGuard проверяет сериализацию запусков отправки
func TestSession_SubmissionGuard(t *testing.T) {
	s := NewSession()

	if err := s.BeginSubmission(); err != nil {
		t.Fatalf("BeginSubmission() failed: %v", err)
	}
	if err := s.BeginSubmission(); err != ErrSubmissionRunning {
		t.Errorf("Expected ErrSubmissionRunning for concurrent run, got %v", err)
	}
	if !s.SubmissionRunning() {
		t.Error("Expected submissionRunning flag to be set")
	}

	s.AppendResult(SubmissionResult{PatentNumber: "EP1234567", OK: true, RequestID: "R1"})
	s.EndSubmission()

	if s.SubmissionRunning() {
		t.Error("Expected submissionRunning flag to be cleared")
	}
	if err := s.BeginSubmission(); err != nil {
		t.Errorf("New run after EndSubmission() must be allowed, got %v", err)
	}
	// Новый запуск очищает прежние результаты
	if len(s.Results()) != 0 {
		t.Errorf("BeginSubmission() must reset results, got %v", s.Results())
	}
}

// TestSession_BatchAndAttachments проверяет хранение партии и вложений
func TestSession_BatchAndAttachments(t *testing.T) {
	s := NewSession()

	s.SetBatch(&importer.ExtractedBatch{PatentNumbers: []string{"EP1234567"}})
	if batch := s.Batch(); batch == nil || len(batch.PatentNumbers) != 1 {
		t.Error("Expected stored batch")
	}

	s.SetAttachments([]byte("application"), nil)
	app, mandate := s.Attachments()
	if string(app) != "application" || mandate != nil {
		t.Error("Expected application attachment only")
	}

	// Повторная загрузка mandate не затирает application
	s.SetAttachments(nil, []byte("mandate"))
	app, mandate = s.Attachments()
	if string(app) != "application" || string(mandate) != "mandate" {
		t.Error("Attachments must be settable independently")
	}
}

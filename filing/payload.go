package filing

import (
	"encoding/base64"
	"fmt"
)

// Статусы подающего лица, зафиксированные внешним API суда
const (
	StatusRegisteredRepresentative    = "RegisteredRepresentativeBeforeTheUPC"
	StatusNotRegisteredRepresentative = "NotARegisteredRepresentativeBeforeTheUPC"
)

// registeredRepresentativeInitials единственный код инициалов,
// распознаваемый как зарегистрированный представитель UPC.
// Сравнение строгое: "yh", "YH " и пустая строка не распознаются.
const registeredRepresentativeInitials = "YH"

// StatusForInitials возвращает статус подающего лица по инициалам
func StatusForInitials(initials string) string {
	if initials == registeredRepresentativeInitials {
		return StatusRegisteredRepresentative
	}
	return StatusNotRegisteredRepresentative
}

// PayloadApplicant заявитель в формате внешнего API.
// Имена полей зафиксированы API суда и воспроизводятся байт в байт.
type PayloadApplicant struct {
	IsNaturalPerson      bool                  `json:"isNaturalPerson"`
	ContactAddress       Address               `json:"contactAddress"`
	Email                string                `json:"email,omitempty"`
	NaturalPersonDetails *NaturalPersonDetails `json:"naturalPersonDetails,omitempty"`
	LegalEntityDetails   *LegalEntityDetails   `json:"legalEntityDetails,omitempty"`
}

// PayloadPatent патент в формате внешнего API
type PayloadPatent struct {
	PatentNumber string `json:"patentNumber"`
}

// PayloadAttachment вложение документа
type PayloadAttachment struct {
	Data     string `json:"data"`
	Language string `json:"language"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// PayloadDocument документ подачи
type PayloadDocument struct {
	DocumentType        string              `json:"documentType"`
	DocumentTitle       string              `json:"documentTitle"`
	DocumentDescription string              `json:"documentDescription"`
	Attachments         []PayloadAttachment `json:"attachments"`
}

// FilingPayload тело одной заявки опт-аута для внешнего API.
// Не персистентно: выводится заново при каждом предпросмотре.
type FilingPayload struct {
	Status            string            `json:"statusPersonLodgingApplication"`
	InternalReference string            `json:"internalReference"`
	Applicant         PayloadApplicant  `json:"applicant"`
	Patent            PayloadPatent     `json:"patent"`
	Documents         []PayloadDocument `json:"documents"`
	Mandator          *MandatorInfo     `json:"mandator,omitempty"`
}

// BuildInput входные данные сборки заявок
type BuildInput struct {
	Applicant      ApplicantInfo
	PatentNumbers  []string
	Initials       string
	ApplicationPDF []byte
	MandatePDF     []byte
	Mandator       *MandatorInfo
}

// BuildPayloads детерминированно собирает по одной заявке на каждый
// номер EP. Функция чистая: одинаковые входы дают байт-в-байт
// одинаковый JSON, что позволяет безопасно перестраивать предпросмотр.
//
// Правила включения:
//   - documents всегда содержит документ Application;
//   - документ Mandate добавляется только когда приложен файл
//     доверенности и присутствует блок mandator;
//   - mandator включается только при статусе
//     NotARegisteredRepresentativeBeforeTheUPC и непустом MandatorInfo.
func BuildPayloads(input BuildInput) []FilingPayload {
	status := StatusForInitials(input.Initials)

	applicationBase64 := base64.StdEncoding.EncodeToString(input.ApplicationPDF)
	mandateBase64 := ""
	if len(input.MandatePDF) > 0 {
		mandateBase64 = base64.StdEncoding.EncodeToString(input.MandatePDF)
	}

	var mandator *MandatorInfo
	if status == StatusNotRegisteredRepresentative {
		mandator = input.Mandator
	}

	payloads := make([]FilingPayload, 0, len(input.PatentNumbers))
	for _, ep := range input.PatentNumbers {
		payload := FilingPayload{
			Status:            status,
			InternalReference: ep,
			Applicant:         NewPayloadApplicant(input.Applicant),
			Patent:            PayloadPatent{PatentNumber: ep},
			Documents: []PayloadDocument{
				{
					DocumentType:        "Application",
					DocumentTitle:       fmt.Sprintf("Opt-out %s", ep),
					DocumentDescription: fmt.Sprintf("Opt-out application for %s", ep),
					Attachments: []PayloadAttachment{
						{
							Data:     applicationBase64,
							Language: "en",
							Filename: fmt.Sprintf("Optout_%s.pdf", ep),
							MimeType: "application/pdf",
						},
					},
				},
			},
			Mandator: mandator,
		}

		if mandator != nil && mandateBase64 != "" {
			payload.Documents = append(payload.Documents, PayloadDocument{
				DocumentType:        "Mandate",
				DocumentTitle:       fmt.Sprintf("Mandate %s", ep),
				DocumentDescription: fmt.Sprintf("Mandate for opt-out application %s", ep),
				Attachments: []PayloadAttachment{
					{
						Data:     mandateBase64,
						Language: "en",
						Filename: fmt.Sprintf("Mandate_%s.pdf", ep),
						MimeType: "application/pdf",
					},
				},
			})
		}

		payloads = append(payloads, payload)
	}

	return payloads
}

// NewPayloadApplicant переводит заявителя во внешний формат.
// contactAddress всегда заполненный объект, null не допускается;
// ровно одно из naturalPersonDetails / legalEntityDetails присутствует.
func NewPayloadApplicant(info ApplicantInfo) PayloadApplicant {
	applicant := PayloadApplicant{
		IsNaturalPerson: info.IsNaturalPerson,
		ContactAddress:  info.Address,
		Email:           info.Email,
	}

	if info.IsNaturalPerson {
		details := NaturalPersonDetails{}
		if info.NaturalPersonDetails != nil {
			details = *info.NaturalPersonDetails
		}
		applicant.NaturalPersonDetails = &details
	} else {
		applicant.LegalEntityDetails = &LegalEntityDetails{Name: info.Name}
	}

	return applicant
}

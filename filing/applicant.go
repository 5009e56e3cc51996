package filing

import (
	"strings"
	"time"
)

// Address почтовый адрес заявителя. Внутреннее каноничное поле Region
// объединяет "state" и "country" из разных версий внешнего парсера;
// во внешний API оно сериализуется под фиксированным ключом "state".
type Address struct {
	StreetAddress string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	Region        string `json:"state"`
}

// NaturalPersonDetails разбитое на части имя физического лица
type NaturalPersonDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LegalEntityDetails данные юридического лица
type LegalEntityDetails struct {
	Name string `json:"name"`
}

// ApplicantInfo текущий заявитель опт-аута: физическое или юридическое лицо.
// Создается заново при каждом импорте таблицы, целиком заменяется при
// ручном редактировании.
type ApplicantInfo struct {
	IsNaturalPerson      bool                  `json:"isNaturalPerson"`
	Name                 string                `json:"name"`
	NaturalPersonDetails *NaturalPersonDetails `json:"naturalPersonDetails,omitempty"`
	Email                string                `json:"email,omitempty"`
	Address              Address               `json:"address"`
}

// MandatorInfo доверитель: физическое лицо, выдавшее доверенность
// представителю, не зарегистрированному при UPC
type MandatorInfo struct {
	NaturalPersonDetails NaturalPersonDetails `json:"naturalPersonDetails"`
	Email                string               `json:"email,omitempty"`
	Address              Address              `json:"contactAddress"`
}

// MandatorFields сырые поля формы доверителя. Заполнение частичное:
// любой поднабор полей допустим, блок опускается только когда пусты все.
type MandatorFields struct {
	FirstName     string
	LastName      string
	Email         string
	StreetAddress string
	City          string
	ZipCode       string
	Region        string
}

// BuildMandator собирает MandatorInfo из полей формы.
// Возвращает nil, если все поля пустые.
func BuildMandator(fields MandatorFields) *MandatorInfo {
	if fields.FirstName == "" && fields.LastName == "" && fields.Email == "" &&
		fields.StreetAddress == "" && fields.City == "" &&
		fields.ZipCode == "" && fields.Region == "" {
		return nil
	}
	return &MandatorInfo{
		NaturalPersonDetails: NaturalPersonDetails{
			FirstName: fields.FirstName,
			LastName:  fields.LastName,
		},
		Email: fields.Email,
		Address: Address{
			StreetAddress: fields.StreetAddress,
			City:          fields.City,
			ZipCode:       fields.ZipCode,
			Region:        fields.Region,
		},
	}
}

// Classification структурированный ответ внешнего сервиса нормализации
// адреса и имени. Region уже прошел политику слияния state/country.
type Classification struct {
	StreetAddress        string
	City                 string
	ZipCode              string
	Region               string
	IsNaturalPerson      *bool
	NaturalPersonDetails *NaturalPersonDetails
	LegalEntityName      string
}

// ManualEdit поля формы ручного редактирования заявителя
type ManualEdit struct {
	Name          string
	Email         string
	StreetAddress string
	City          string
	ZipCode       string
	Region        string
	FirstName     string
	LastName      string
}

// NewApplicantFromClassification строит нового заявителя из ответа
// классификатора, полностью заменяя прежнее значение. Предвыбранный
// оператором тип лица перекрывается явным ответом сервиса.
func NewApplicantFromClassification(c Classification, isNaturalPerson bool, fallbackName, fallbackEmail string) *ApplicantInfo {
	if c.IsNaturalPerson != nil {
		isNaturalPerson = *c.IsNaturalPerson
	}

	name := fallbackName
	if !isNaturalPerson && c.LegalEntityName != "" {
		name = c.LegalEntityName
	}

	info := &ApplicantInfo{
		IsNaturalPerson: isNaturalPerson,
		Name:            name,
		Email:           fallbackEmail,
		Address: Address{
			StreetAddress: c.StreetAddress,
			City:          c.City,
			ZipCode:       c.ZipCode,
			Region:        c.Region,
		},
	}
	if isNaturalPerson {
		info.NaturalPersonDetails = c.NaturalPersonDetails
	}
	return info
}

// ApplyManualEdit возвращает заявителя, целиком перестроенного из полей
// формы. Редактирование атомарно: адрес заменяется полностью, для
// физического лица имя пересчитывается из firstName + lastName.
// Бизнес-валидация обязательных полей выполняется на шаге отправки.
func (a *ApplicantInfo) ApplyManualEdit(edit ManualEdit) *ApplicantInfo {
	updated := &ApplicantInfo{
		IsNaturalPerson: a.IsNaturalPerson,
		Name:            edit.Name,
		Email:           edit.Email,
		Address: Address{
			StreetAddress: edit.StreetAddress,
			City:          edit.City,
			ZipCode:       edit.ZipCode,
			Region:        edit.Region,
		},
	}

	if a.IsNaturalPerson {
		updated.NaturalPersonDetails = &NaturalPersonDetails{
			FirstName: edit.FirstName,
			LastName:  edit.LastName,
		}
		if edit.FirstName != "" || edit.LastName != "" {
			updated.Name = strings.TrimSpace(edit.FirstName + " " + edit.LastName)
		}
	}

	return updated
}

// WithPersonType переключает тип лица. Имя и адрес сохраняются,
// naturalPersonDetails сбрасывается при переключении на юридическое
// лицо; при обратном переключении их заново заполняет форма редактирования.
func (a *ApplicantInfo) WithPersonType(isNaturalPerson bool) *ApplicantInfo {
	updated := *a
	updated.IsNaturalPerson = isNaturalPerson
	if !isNaturalPerson {
		updated.NaturalPersonDetails = nil
	}
	return &updated
}

// SubmissionResult исход отправки одного номера EP
type SubmissionResult struct {
	PatentNumber  string    `json:"patentNumber"`
	OK            bool      `json:"ok"`
	RequestID     string    `json:"requestId,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	ReceptionTime string    `json:"receptionTime,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

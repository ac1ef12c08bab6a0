package forms

import (
	"strconv"
	"strings"

	"github.com/northgate-advisors/intake-backend/internal/catalog"
)

type Contact struct {
	Meta
	Person
	Service string `json:"service" validate:"omitempty,max=50"`
	State   string `json:"state" validate:"omitempty,max=50"`
	Message string `json:"message" validate:"omitempty,max=5000"`
}

func (f *Contact) Family() string { return catalog.SlugContact }

func (f *Contact) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormContact, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)

	service := strings.TrimSpace(f.Service)
	interest := service
	n.Tags = []string{}
	if label, ok := reg.InterestLabel(service); ok {
		interest = label
		n.Tags = append(n.Tags, label)
	}
	n.InterestCategory = strings.ToLower(service)
	n.Fields = append(n.Fields,
		field("Service Interest", interest),
		field("State", f.State),
	)
	return n
}

type Careers struct {
	Meta
	Person
	Position        string `json:"position" validate:"omitempty,max=100"`
	LicenseStatus   string `json:"licenseStatus" validate:"omitempty,oneof=licensed unlicensed in_progress"`
	YearsExperience *int   `json:"yearsExperience" validate:"omitempty,min=0,max=70"`
	LinkedInURL     string `json:"linkedinUrl" validate:"omitempty,url,max=300"`
	State           string `json:"state" validate:"omitempty,max=50"`
	Message         string `json:"message" validate:"omitempty,max=5000"`
}

func (f *Careers) Family() string { return catalog.SlugCareers }

func (f *Careers) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormCareers, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.Tags = formTags(reg, n.FormName)

	years := ""
	if f.YearsExperience != nil {
		years = strconv.Itoa(*f.YearsExperience)
	}
	n.Fields = append(n.Fields,
		field("Position", f.Position),
		field("License Status", strings.ReplaceAll(f.LicenseStatus, "_", " ")),
		field("Years of Experience", years),
		field("LinkedIn", f.LinkedInURL),
		field("State", f.State),
	)
	return n
}

type BusinessInsurance struct {
	Meta
	Person
	Company       string   `json:"company" validate:"required,max=200"`
	Industry      string   `json:"industry" validate:"omitempty,max=100"`
	Employees     string   `json:"employees" validate:"omitempty,max=50"`
	CoverageTypes []string `json:"coverageTypes" validate:"omitempty,max=20,dive,max=100"`
	State         string   `json:"state" validate:"omitempty,max=50"`
	Message       string   `json:"message" validate:"omitempty,max=5000"`
}

func (f *BusinessInsurance) Family() string { return catalog.SlugBusinessInsurance }

func (f *BusinessInsurance) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormBusinessInsurance, Family: f.Family(), Company: f.Company, State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.Tags = formTags(reg, n.FormName)
	n.Fields = append(n.Fields,
		field("Company", f.Company),
		field("Industry", f.Industry),
		field("Employees", f.Employees),
		field("Coverage Types", strings.Join(f.CoverageTypes, ", ")),
		field("State", f.State),
	)
	return n
}

type EstatePlanning struct {
	Meta
	Person
	MaritalStatus   string `json:"maritalStatus" validate:"omitempty,oneof=single married divorced widowed partnered"`
	HasChildren     *bool  `json:"hasChildren"`
	HasExistingPlan *bool  `json:"hasExistingPlan"`
	EstateValue     string `json:"estateValue" validate:"omitempty,max=50"`
	State           string `json:"state" validate:"omitempty,max=50"`
	Message         string `json:"message" validate:"omitempty,max=5000"`
}

func (f *EstatePlanning) Family() string { return catalog.SlugEstatePlanning }

func (f *EstatePlanning) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormEstatePlanning, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.Tags = formTags(reg, n.FormName)
	n.Fields = append(n.Fields,
		field("Marital Status", f.MaritalStatus),
		field("Has Children", yesNo(f.HasChildren)),
		field("Existing Estate Plan", yesNo(f.HasExistingPlan)),
		field("Estimated Estate Value", f.EstateValue),
		field("State", f.State),
	)
	return n
}

type Medicare struct {
	Meta
	Person
	DateOfBirth     string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	ZipCode         string `json:"zipCode" validate:"omitempty,len=5,numeric"`
	CurrentCoverage string `json:"currentCoverage" validate:"omitempty,max=100"`
	State           string `json:"state" validate:"omitempty,max=50"`
	Message         string `json:"message" validate:"omitempty,max=5000"`
}

func (f *Medicare) Family() string { return catalog.SlugMedicare }

func (f *Medicare) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormMedicare, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.Tags = formTags(reg, n.FormName)
	n.Fields = append(n.Fields,
		field("Date of Birth", f.DateOfBirth),
		field("ZIP Code", f.ZipCode),
		field("Current Coverage", f.CurrentCoverage),
		field("State", f.State),
	)
	return n
}

type KaiZen struct {
	Meta
	Person
	Age          *int   `json:"age" validate:"omitempty,min=18,max=100"`
	AnnualIncome string `json:"annualIncome" validate:"omitempty,max=50"`
	Occupation   string `json:"occupation" validate:"omitempty,max=100"`
	State        string `json:"state" validate:"omitempty,max=50"`
	Message      string `json:"message" validate:"omitempty,max=5000"`
}

func (f *KaiZen) Family() string { return catalog.SlugKaiZen }

func (f *KaiZen) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormKaiZen, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.Tags = formTags(reg, n.FormName)

	age := ""
	if f.Age != nil {
		age = strconv.Itoa(*f.Age)
	}
	n.Fields = append(n.Fields,
		field("Age", age),
		field("Annual Income", f.AnnualIncome),
		field("Occupation", f.Occupation),
		field("State", f.State),
	)
	return n
}

type BookConsultation struct {
	Meta
	Person
	Interests     []string `json:"interests" validate:"required,min=1,max=10,dive,required,max=50"`
	PreferredDate string   `json:"preferredDate" validate:"omitempty,datetime=2006-01-02"`
	PreferredTime string   `json:"preferredTime" validate:"omitempty,max=50"`
	MeetingType   string   `json:"meetingType" validate:"omitempty,oneof=phone video in_person"`
	State         string   `json:"state" validate:"omitempty,max=50"`
	Message       string   `json:"message" validate:"omitempty,max=5000"`
}

func (f *BookConsultation) Family() string { return catalog.SlugBookConsultation }

func (f *BookConsultation) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormBookConsultation, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)

	tokens := make([]string, 0, len(f.Interests))
	labels := make([]string, 0, len(f.Interests))
	for _, raw := range f.Interests {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
		if label, ok := reg.InterestLabel(token); ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, raw)
		}
	}
	n.InterestCategory = strings.Join(tokens, ",")
	n.Tags = labels
	n.Fields = append(n.Fields,
		field("Interests", strings.Join(labels, ", ")),
		field("Preferred Date", f.PreferredDate),
		field("Preferred Time", f.PreferredTime),
		field("Meeting Type", strings.ReplaceAll(f.MeetingType, "_", " ")),
		field("State", f.State),
	)
	return n
}

// AdvisorContact is posted from an advisor's profile page; the advisor
// slug is mandatory.
type AdvisorContact struct {
	Meta
	Person
	AdvisorSlug string `json:"advisorSlug" validate:"required,max=100"`
	State       string `json:"state" validate:"omitempty,max=50"`
	Message     string `json:"message" validate:"required,max=5000"`
}

func (f *AdvisorContact) Family() string { return catalog.SlugAdvisorContact }

func (f *AdvisorContact) Normalize(reg *catalog.Registry) Normalized {
	n := Normalized{FormName: catalog.FormAdvisorContact, Family: f.Family(), State: f.State, Notes: f.Message}
	f.Meta.apply(&n)
	f.Person.apply(&n)
	n.AdvisorSlug = strings.TrimSpace(f.AdvisorSlug)
	n.Tags = formTags(reg, n.FormName)
	n.Fields = append(n.Fields,
		field("Advisor", n.AdvisorSlug),
		field("State", f.State),
	)
	return n
}

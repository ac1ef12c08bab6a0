package catalog

// Form names as they appear in emails, CRM lead titles and labels.
const (
	FormContact                   = "Contact"
	FormCareers                   = "Careers"
	FormBusinessInsurance         = "Business Insurance"
	FormEstatePlanning            = "Estate Planning"
	FormMedicare                  = "Medicare"
	FormKaiZen                    = "Kai-Zen"
	FormBookConsultation          = "Book Consultation"
	FormAdvisorContact            = "Advisor Contact"
	FormLifeInsuranceApplication  = "Life Insurance Application"
	FormEstatePlanningApplication = "Estate Planning Application"
)

// Slugs used in the function routes.
const (
	SlugContact                   = "contact"
	SlugCareers                   = "careers"
	SlugBusinessInsurance         = "business-insurance"
	SlugEstatePlanning            = "estate-planning"
	SlugMedicare                  = "medicare"
	SlugKaiZen                    = "kai-zen"
	SlugBookConsultation          = "book-consultation"
	SlugAdvisorContact            = "advisor-contact"
	SlugLifeInsuranceApplication  = "life-insurance-application"
	SlugEstatePlanningApplication = "estate-planning-application"
	SlugGeneral                   = "general"
)

func defaultFile() File {
	return File{
		Forms: []FormConfig{
			{Slug: SlugContact, FormName: FormContact, Subject: "New Contact Form Submission", SendConfirmation: true, CCAdvisor: true, RateLimited: true, CRMSync: true},
			{Slug: SlugCareers, FormName: FormCareers, Subject: "New Careers Inquiry", SendConfirmation: true, RateLimited: true},
			{Slug: SlugBusinessInsurance, FormName: FormBusinessInsurance, Subject: "New Business Insurance Inquiry", SendConfirmation: true, RateLimited: true, CRMSync: true},
			{Slug: SlugEstatePlanning, FormName: FormEstatePlanning, Subject: "New Estate Planning Inquiry", SendConfirmation: true, CCAdvisor: true, RateLimited: true, CRMSync: true},
			{Slug: SlugMedicare, FormName: FormMedicare, Subject: "New Medicare Inquiry", SendConfirmation: true, RateLimited: true, CRMSync: true},
			{Slug: SlugKaiZen, FormName: FormKaiZen, Subject: "New Kai-Zen Inquiry", SendConfirmation: true, RateLimited: true, CRMSync: true},
			{Slug: SlugBookConsultation, FormName: FormBookConsultation, Subject: "New Consultation Request", SendConfirmation: true, CCAdvisor: true, RateLimited: true, CRMSync: true},
			{Slug: SlugAdvisorContact, FormName: FormAdvisorContact, Subject: "New Message for Your Advisor Profile", SendConfirmation: true, CCAdvisor: true, RateLimited: true, CRMSync: true},
			{Slug: SlugLifeInsuranceApplication, FormName: FormLifeInsuranceApplication, Subject: "Life Insurance Application Submitted", SendConfirmation: true},
			{Slug: SlugEstatePlanningApplication, FormName: FormEstatePlanningApplication, Subject: "Estate Planning Application Submitted", SendConfirmation: true},
		},
		FormLabels: map[string]string{
			FormContact:                   "Website Inquiry",
			FormCareers:                   "Recruiting",
			FormBusinessInsurance:         "Business Insurance",
			FormEstatePlanning:            "Estate Planning",
			FormMedicare:                  "Medicare",
			FormKaiZen:                    "Kai-Zen",
			FormAdvisorContact:            "Advisor Referral",
			FormLifeInsuranceApplication:  "Life Insurance",
			FormEstatePlanningApplication: "Estate Planning",
		},
		Interests: map[string]string{
			"retirement": "Retirement Planning",
			"tax":        "Tax Strategy",
			"estate":     "Estate Planning",
			"insurance":  "Life Insurance",
			"investment": "Investment Management",
			"medicare":   "Medicare",
			"business":   "Business Insurance",
			"kaizen":     "Kai-Zen",
			"college":    "College Planning",
			"annuities":  "Annuities",
		},
	}
}

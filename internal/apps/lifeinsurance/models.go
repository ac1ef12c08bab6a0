package lifeinsurance

import (
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/wizard"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const TotalSteps = 9

var Steps = []wizard.Step{
	{Number: 1, Key: "personal", Title: "Personal Information"},
	{Number: 2, Key: "contact_employment", Title: "Contact & Employment"},
	{Number: 3, Key: "ownership", Title: "Policy Ownership"},
	{Number: 4, Key: "beneficiaries", Title: "Beneficiaries"},
	{Number: 5, Key: "policy_riders", Title: "Policy & Riders"},
	{Number: 6, Key: "existing_coverage", Title: "Existing Coverage"},
	{Number: 7, Key: "medical_lifestyle", Title: "Medical & Lifestyle"},
	{Number: 8, Key: "payment", Title: "Payment"},
	{Number: 9, Key: "acknowledgment", Title: "Acknowledgment"},
}

// Application is one life insurance application as the applicant moves
// through the wizard.
type Application struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	ResumeTokenHash string                       `gorm:"size:64;not null" json:"-"`
	FirstName       string                       `gorm:"size:100" json:"first_name"`
	LastName        string                       `gorm:"size:100" json:"last_name"`
	Email           string                       `gorm:"size:254;index" json:"email"`
	Phone           string                       `gorm:"size:30" json:"phone,omitempty"`
	State           string                       `gorm:"size:50" json:"state,omitempty"`
	AdvisorSlug     string                       `gorm:"size:100" json:"advisor_slug,omitempty"`
	CurrentStep     int                          `gorm:"not null;default:1" json:"current_step"`
	Status          string                       `gorm:"size:20;not null;default:'draft';index" json:"status"`
	FormData        datatypes.JSONType[FormData] `json:"form_data"`
	ReviewerNotes   string                       `gorm:"type:text" json:"reviewer_notes,omitempty"`
	SubmittedAt     *time.Time                   `json:"submitted_at,omitempty"`
	CreatedAt       time.Time                    `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Application) TableName() string {
	return "life_insurance_applications"
}

// FormData holds one entry per wizard step; a nil entry was never saved.
type FormData struct {
	Personal          *Personal          `json:"personal,omitempty"`
	ContactEmployment *ContactEmployment `json:"contact_employment,omitempty"`
	Ownership         *Ownership         `json:"ownership,omitempty"`
	Beneficiaries     *Beneficiaries     `json:"beneficiaries,omitempty"`
	PolicyRiders      *PolicyRiders      `json:"policy_riders,omitempty"`
	ExistingCoverage  *ExistingCoverage  `json:"existing_coverage,omitempty"`
	MedicalLifestyle  *MedicalLifestyle  `json:"medical_lifestyle,omitempty"`
	Payment           *Payment           `json:"payment,omitempty"`
	Acknowledgment    *Acknowledgment    `json:"acknowledgment,omitempty"`
}

// Step 1
type Personal struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	MiddleName  string `json:"middleName" validate:"omitempty,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,phone"`
	Citizenship string `json:"citizenship" validate:"required,oneof=us_citizen permanent_resident visa_holder other"`
	State       string `json:"state" validate:"required,max=50"`
	AdvisorSlug string `json:"advisorSlug" validate:"omitempty,max=100"`
}

// Step 2
type ContactEmployment struct {
	Street           string  `json:"street" validate:"required,max=200"`
	City             string  `json:"city" validate:"required,max=100"`
	State            string  `json:"state" validate:"required,max=50"`
	Zip              string  `json:"zip" validate:"required,max=10"`
	EmploymentStatus string  `json:"employmentStatus" validate:"required,oneof=employed self_employed retired unemployed student homemaker"`
	Employer         string  `json:"employer" validate:"required_if=EmploymentStatus employed,max=200"`
	Occupation       string  `json:"occupation" validate:"omitempty,max=200"`
	AnnualIncome     float64 `json:"annualIncome" validate:"gte=0"`
	NetWorth         float64 `json:"netWorth" validate:"gte=0"`
}

// Step 3
type Ownership struct {
	OwnerType         string `json:"ownerType" validate:"required,oneof=insured other"`
	OwnerName         string `json:"ownerName" validate:"required_if=OwnerType other,max=200"`
	OwnerRelationship string `json:"ownerRelationship" validate:"required_if=OwnerType other,max=100"`
	OwnerEmail        string `json:"ownerEmail" validate:"omitempty,email,max=254"`
	PayorSameAsOwner  bool   `json:"payorSameAsOwner"`
	PayorName         string `json:"payorName" validate:"omitempty,max=200"`
}

type Beneficiary struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Relationship string  `json:"relationship" validate:"required,max=100"`
	DateOfBirth  string  `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Percentage   float64 `json:"percentage" validate:"gt=0,lte=100"`
}

// Step 4
type Beneficiaries struct {
	Primary    []Beneficiary `json:"primary" validate:"min=1,max=10,dive"`
	Contingent []Beneficiary `json:"contingent" validate:"max=10,dive"`
}

func (b *Beneficiaries) Check() error {
	if err := wizard.CheckShares("primary", shares(b.Primary)); err != nil {
		return err
	}
	return wizard.CheckShares("contingent", shares(b.Contingent))
}

func shares(bs []Beneficiary) []float64 {
	out := make([]float64, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Percentage)
	}
	return out
}

// Step 5
type PolicyRiders struct {
	ProductType    string   `json:"productType" validate:"required,oneof=term whole universal indexed_universal final_expense"`
	CoverageAmount float64  `json:"coverageAmount" validate:"required,gte=10000,lte=50000000"`
	TermLength     int      `json:"termLength" validate:"required_if=ProductType term,omitempty,oneof=10 15 20 25 30"`
	PremiumMode    string   `json:"premiumMode" validate:"required,oneof=monthly quarterly semi_annual annual"`
	Riders         []string `json:"riders" validate:"max=10,dive,oneof=waiver_of_premium accidental_death child_term chronic_illness critical_illness return_of_premium"`
}

type ExistingPolicy struct {
	Carrier        string  `json:"carrier" validate:"required,max=200"`
	PolicyNumber   string  `json:"policyNumber" validate:"omitempty,max=50"`
	CoverageAmount float64 `json:"coverageAmount" validate:"gte=0"`
	BeingReplaced  bool    `json:"beingReplaced"`
}

// Step 6
type ExistingCoverage struct {
	HasExistingCoverage *bool            `json:"hasExistingCoverage" validate:"required"`
	Policies            []ExistingPolicy `json:"policies" validate:"max=10,dive"`
	PendingApplications *bool            `json:"pendingApplications" validate:"required"`
}

func (e *ExistingCoverage) Check() error {
	if e.HasExistingCoverage != nil && *e.HasExistingCoverage && len(e.Policies) == 0 {
		return fieldError("policies", "policies are required when existing coverage is declared")
	}
	return nil
}

// Step 7
type MedicalLifestyle struct {
	HeightInches        int      `json:"heightInches" validate:"required,gte=36,lte=96"`
	WeightLbs           int      `json:"weightLbs" validate:"required,gte=50,lte=700"`
	TobaccoUse          *bool    `json:"tobaccoUse" validate:"required"`
	TobaccoLastUsed     string   `json:"tobaccoLastUsed" validate:"omitempty,max=50"`
	Conditions          []string `json:"conditions" validate:"max=30,dive,max=200"`
	Medications         string   `json:"medications" validate:"omitempty,max=2000"`
	HazardousActivities []string `json:"hazardousActivities" validate:"max=20,dive,max=100"`
	DUIInLastFiveYears  *bool    `json:"duiInLastFiveYears" validate:"required"`
	PhysicianName       string   `json:"physicianName" validate:"omitempty,max=200"`
}

// Step 8. Only the last four digits of the account are kept.
type Payment struct {
	Method        string `json:"method" validate:"required,oneof=ach card check"`
	BankName      string `json:"bankName" validate:"required_if=Method ach,max=200"`
	RoutingNumber string `json:"routingNumber" validate:"required_if=Method ach,omitempty,len=9,numeric"`
	AccountLast4  string `json:"accountLast4" validate:"required_if=Method ach,omitempty,len=4,numeric"`
	AccountType   string `json:"accountType" validate:"required_if=Method ach,omitempty,oneof=checking savings"`
	DraftDay      int    `json:"draftDay" validate:"omitempty,gte=1,lte=28"`
}

// Step 9
type Acknowledgment struct {
	AgreeToTerms      bool   `json:"agreeToTerms" validate:"required"`
	AuthorizeMedical  bool   `json:"authorizeMedical" validate:"required"`
	ElectronicConsent bool   `json:"electronicConsent" validate:"required"`
	Signature         string `json:"signature" validate:"required,max=200"`
	SignedDate        string `json:"signedDate" validate:"required,datetime=2006-01-02"`
}

// --- DTOs ---

type CreateResponse struct {
	ID          uuid.UUID `json:"id"`
	ResumeToken string    `json:"resume_token"`
	CurrentStep int       `json:"current_step"`
	Status      string    `json:"status"`
}

type ApplicationView struct {
	Application
	Steps   []wizard.Step `json:"steps"`
	Missing []int         `json:"missing_steps"`
}

type StatusRequest struct {
	Status        string `json:"status"`
	ReviewerNotes string `json:"reviewer_notes"`
}

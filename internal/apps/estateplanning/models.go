package estateplanning

import (
	"time"

	"github.com/google/uuid"
	"github.com/northgate-advisors/intake-backend/internal/wizard"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const TotalSteps = 8

var Steps = []wizard.Step{
	{Number: 1, Key: "identity", Title: "About You"},
	{Number: 2, Key: "heirs", Title: "Family & Heirs"},
	{Number: 3, Key: "trustees", Title: "Trustees"},
	{Number: 4, Key: "beneficiaries", Title: "Beneficiaries"},
	{Number: 5, Key: "attorney_in_fact", Title: "Power of Attorney"},
	{Number: 6, Key: "healthcare", Title: "Healthcare Directives"},
	{Number: 7, Key: "assets", Title: "Assets"},
	{Number: 8, Key: "signature", Title: "Review & Sign"},
}

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
	return "estate_planning_applications"
}

// FormData holds one entry per wizard step. AttorneyInFact is pre-filled
// with the default powers on a new application; it only counts as answered
// once it validates.
type FormData struct {
	Identity       *Identity       `json:"identity,omitempty"`
	Heirs          *Heirs          `json:"heirs,omitempty"`
	Trustees       *Trustees       `json:"trustees,omitempty"`
	Beneficiaries  *Beneficiaries  `json:"beneficiaries,omitempty"`
	AttorneyInFact *AttorneyInFact `json:"attorney_in_fact,omitempty"`
	Healthcare     *Healthcare     `json:"healthcare,omitempty"`
	Assets         *Assets         `json:"assets,omitempty"`
	Signature      *Signature      `json:"signature,omitempty"`
}

// Step 1
type Identity struct {
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,phone"`
	DateOfBirth   string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	MaritalStatus string `json:"maritalStatus" validate:"required,oneof=single married divorced widowed domestic_partner"`
	Street        string `json:"street" validate:"required,max=200"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,max=50"`
	County        string `json:"county" validate:"omitempty,max=100"`
	Zip           string `json:"zip" validate:"required,max=10"`
	AdvisorSlug   string `json:"advisorSlug" validate:"omitempty,max=100"`
}

type Person struct {
	Name         string `json:"name" validate:"required,max=200"`
	Relationship string `json:"relationship" validate:"omitempty,max=100"`
	DateOfBirth  string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
}

// Step 2
type Heirs struct {
	Spouse             *Person  `json:"spouse"`
	Children           []Person `json:"children" validate:"max=20,dive"`
	HasDeceasedChild   *bool    `json:"hasDeceasedChild" validate:"required"`
	HasMinorChildren   *bool    `json:"hasMinorChildren" validate:"required"`
	GuardianForMinors  *Person  `json:"guardianForMinors"`
	DisinheritedPeople []string `json:"disinheritedPeople" validate:"max=10,dive,max=200"`
}

func (h *Heirs) Check() error {
	if h.HasMinorChildren != nil && *h.HasMinorChildren && h.GuardianForMinors == nil {
		return fieldError("guardianForMinors", "guardianForMinors is required when there are minor children")
	}
	return nil
}

// Step 3
type Trustees struct {
	InitialTrustee     string   `json:"initialTrustee" validate:"required,oneof=self self_and_spouse other"`
	OtherTrustee       *Person  `json:"otherTrustee"`
	SuccessorTrustees  []Person `json:"successorTrustees" validate:"min=1,max=5,dive"`
	SuccessorsActJoint bool     `json:"successorsActJointly"`
}

func (t *Trustees) Check() error {
	if t.InitialTrustee == "other" && t.OtherTrustee == nil {
		return fieldError("otherTrustee", "otherTrustee is required when the initial trustee is someone else")
	}
	return nil
}

type Beneficiary struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Relationship string  `json:"relationship" validate:"required,max=100"`
	Percentage   float64 `json:"percentage" validate:"gt=0,lte=100"`
	PerStirpes   bool    `json:"perStirpes"`
}

type SpecificGift struct {
	Description string `json:"description" validate:"required,max=500"`
	Recipient   string `json:"recipient" validate:"required,max=200"`
}

// Step 4
type Beneficiaries struct {
	Beneficiaries   []Beneficiary  `json:"beneficiaries" validate:"min=1,max=20,dive"`
	SpecificGifts   []SpecificGift `json:"specificGifts" validate:"max=20,dive"`
	DistributionAge int            `json:"distributionAge" validate:"omitempty,gte=18,lte=65"`
}

func (b *Beneficiaries) Check() error {
	shares := make([]float64, 0, len(b.Beneficiaries))
	for _, x := range b.Beneficiaries {
		shares = append(shares, x.Percentage)
	}
	return wizard.CheckShares("beneficiaries", shares)
}

// Powers are the authorities granted to the attorney-in-fact.
type Powers struct {
	RealProperty              bool `json:"powerRealProperty"`
	TangiblePersonalProperty  bool `json:"powerTangiblePersonalProperty"`
	StocksAndBonds            bool `json:"powerStocksAndBonds"`
	Banking                   bool `json:"powerBanking"`
	BusinessOperations        bool `json:"powerBusinessOperations"`
	InsuranceAndAnnuities     bool `json:"powerInsuranceAndAnnuities"`
	EstatesAndTrusts          bool `json:"powerEstatesAndTrusts"`
	ClaimsAndLitigation       bool `json:"powerClaimsAndLitigation"`
	PersonalFamilyMaintenance bool `json:"powerPersonalFamilyMaintenance"`
	GovernmentBenefits        bool `json:"powerGovernmentBenefits"`
	RetirementPlans           bool `json:"powerRetirementPlans"`
	TaxMatters                bool `json:"powerTaxMatters"`
	DigitalAssets             bool `json:"powerDigitalAssets"`
	FundTrust                 bool `json:"powerFundTrust"`
	Gifts                     bool `json:"powerGifts"`
	DelegateAuthority         bool `json:"powerDelegateAuthority"`
	BenefitFromActions        bool `json:"powerBenefitFromActions"`
	CommingleFunds            bool `json:"powerCommingleFunds"`
}

// DefaultPowers is the power vector of a fresh application: every power is
// granted except gifting, delegation, self-benefit and commingling.
func DefaultPowers() Powers {
	return Powers{
		RealProperty:              true,
		TangiblePersonalProperty:  true,
		StocksAndBonds:            true,
		Banking:                   true,
		BusinessOperations:        true,
		InsuranceAndAnnuities:     true,
		EstatesAndTrusts:          true,
		ClaimsAndLitigation:       true,
		PersonalFamilyMaintenance: true,
		GovernmentBenefits:        true,
		RetirementPlans:           true,
		TaxMatters:                true,
		DigitalAssets:             true,
		FundTrust:                 true,
		Gifts:                     false,
		DelegateAuthority:         false,
		BenefitFromActions:        false,
		CommingleFunds:            false,
	}
}

// Step 5
type AttorneyInFact struct {
	Agents    []Person `json:"agents" validate:"min=1,max=3,dive"`
	Effective string   `json:"effective" validate:"required,oneof=immediately upon_incapacity"`
	Powers
}

// Step 6
type Healthcare struct {
	Surrogates         []Person `json:"surrogates" validate:"min=1,max=3,dive"`
	LifeProlonging     string   `json:"lifeProlonging" validate:"required,oneof=prolong withhold surrogate_decides"`
	OrganDonation      string   `json:"organDonation" validate:"required,oneof=any_needed specific none"`
	SpecificOrgans     string   `json:"specificOrgans" validate:"required_if=OrganDonation specific,max=500"`
	HIPAAAuthorization bool     `json:"hipaaAuthorization"`
	Instructions       string   `json:"instructions" validate:"omitempty,max=5000"`
}

type Asset struct {
	Type           string  `json:"type" validate:"required,oneof=real_estate bank_account brokerage retirement life_insurance business vehicle other"`
	Description    string  `json:"description" validate:"required,max=500"`
	EstimatedValue float64 `json:"estimatedValue" validate:"gte=0"`
	FundIntoTrust  bool    `json:"fundIntoTrust"`
}

// Step 7
type Assets struct {
	Items []Asset `json:"items" validate:"max=50,dive"`
	Notes string  `json:"notes" validate:"omitempty,max=5000"`
}

// Step 8
type Signature struct {
	AgreeToTerms      bool   `json:"agreeToTerms" validate:"required"`
	ElectronicConsent bool   `json:"electronicConsent" validate:"required"`
	Signature         string `json:"signature" validate:"required,max=200"`
	SignedDate        string `json:"signedDate" validate:"required,datetime=2006-01-02"`
	SigningLocation   string `json:"signingLocation" validate:"omitempty,oneof=office home remote"`
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

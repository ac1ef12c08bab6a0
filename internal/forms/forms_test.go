package forms

import (
	"errors"
	"testing"

	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeContact = `{
	"firstName": "Jane",
	"lastName":  "Doe",
	"email":     "jane@x.com",
	"phone":     "5551234567",
	"service":   "retirement",
	"message":   "Need help planning",
	"honeypot":  ""
}`

func fieldValue(n Normalized, label string) (string, bool) {
	for _, f := range n.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

func TestDecode_ContactNormalizes(t *testing.T) {
	f, err := Decode(catalog.SlugContact, []byte(janeContact))
	require.NoError(t, err)
	require.NoError(t, Validate(f))

	n := f.Normalize(catalog.Default())

	assert.Equal(t, catalog.FormContact, n.FormName)
	assert.Equal(t, []string{"Retirement Planning"}, n.Tags)
	assert.Equal(t, "retirement", n.InterestCategory)
	assert.Equal(t, "Need help planning", n.Notes)

	v, ok := fieldValue(n, "Service Interest")
	require.True(t, ok)
	assert.Equal(t, "Retirement Planning", v)

	sub := n.Submission()
	assert.Equal(t, "jane@x.com", sub.Email)
	assert.Equal(t, "Jane Doe", sub.FullName())
	assert.Equal(t, []string{"Retirement Planning"}, []string(sub.Tags))
}

func TestContact_UnknownServiceKeepsRawValue(t *testing.T) {
	f := &Contact{Person: Person{FirstName: "A", LastName: "B", Email: "a@b.co"}, Service: "crypto"}
	n := f.Normalize(catalog.Default())

	assert.Empty(t, n.Tags)
	v, _ := fieldValue(n, "Service Interest")
	assert.Equal(t, "crypto", v)
}

func TestDecode_UnknownFamily(t *testing.T) {
	_, err := Decode("newsletter", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownForm))
}

func TestDecode_MalformedBody(t *testing.T) {
	_, err := Decode(catalog.SlugContact, []byte(`{"firstName":`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid request body", verr.Error())
}

func TestValidate(t *testing.T) {
	person := Person{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Phone: "(555) 123-4567"}

	tests := []struct {
		name      string
		form      Form
		wantField string
	}{
		{"valid contact", &Contact{Person: person}, ""},
		{"missing first name", &Contact{Person: Person{LastName: "Doe", Email: "jane@x.com"}}, "firstName"},
		{"bad email", &Contact{Person: Person{FirstName: "J", LastName: "D", Email: "nope"}}, "email"},
		{"short phone", &Contact{Person: Person{FirstName: "J", LastName: "D", Email: "j@x.com", Phone: "555"}}, "phone"},
		{"letters in phone", &Contact{Person: Person{FirstName: "J", LastName: "D", Email: "j@x.com", Phone: "555-CALL-NOW"}}, "phone"},
		{"business needs company", &BusinessInsurance{Person: person}, "company"},
		{"bad license status", &Careers{Person: person, LicenseStatus: "maybe"}, "licenseStatus"},
		{"bad medicare zip", &Medicare{Person: person, ZipCode: "12ab5"}, "zipCode"},
		{"bad medicare dob", &Medicare{Person: person, DateOfBirth: "03/04/1950"}, "dateOfBirth"},
		{"consultation needs interests", &BookConsultation{Person: person}, "interests"},
		{"advisor contact needs slug", &AdvisorContact{Person: person, Message: "hi"}, "advisorSlug"},
		{"bad advisor email", &Contact{Person: person, Meta: Meta{AdvisorEmail: "x"}}, "advisorEmail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestValidate_MessageLength(t *testing.T) {
	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'a'
	}
	f := &Contact{Person: Person{FirstName: "J", LastName: "D", Email: "j@x.com"}, Message: string(long)}

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message must be at most 5000 characters")
}

func TestBookConsultation_InterestCategory(t *testing.T) {
	f := &BookConsultation{
		Person:    Person{FirstName: "Sam", LastName: "Lee", Email: "sam@x.com"},
		Interests: []string{"Retirement", " tax ", "crypto"},
	}
	require.NoError(t, Validate(f))

	n := f.Normalize(catalog.Default())

	assert.Equal(t, "retirement,tax,crypto", n.InterestCategory)
	assert.Equal(t, []string{"Retirement Planning", "Tax Strategy", "crypto"}, n.Tags)
}

func TestFormFamiliesUseCatalogLabel(t *testing.T) {
	reg := catalog.Default()
	person := Person{FirstName: "J", LastName: "D", Email: "j@x.com"}

	assert.Equal(t, []string{"Medicare"}, (&Medicare{Person: person}).Normalize(reg).Tags)
	assert.Equal(t, []string{"Recruiting"}, (&Careers{Person: person}).Normalize(reg).Tags)
	assert.Equal(t, "Acme", (&BusinessInsurance{Person: person, Company: "Acme"}).Normalize(reg).Company)
}

func TestMeta_AdvisorLinkage(t *testing.T) {
	f := &AdvisorContact{
		Meta:        Meta{AdvisorEmail: " Pat@Firm.com ", AdvisorID: "not-a-uuid"},
		Person:      Person{FirstName: "J", LastName: "D", Email: "j@x.com"},
		AdvisorSlug: "pat-smith",
		Message:     "Hello",
	}
	n := f.Normalize(catalog.Default())

	assert.Equal(t, "pat-smith", n.AdvisorSlug)
	assert.Equal(t, "pat@firm.com", n.AdvisorEmail)
	assert.Nil(t, n.AdvisorID)
}

func TestPayload_Normalize(t *testing.T) {
	p := &Payload{
		FormName:  "Webinar Signup",
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		Extra:     map[string]string{"Session": "March", "Attendees": "2"},
	}
	require.NoError(t, Validate(p))

	n := p.Normalize(catalog.Default())
	assert.Equal(t, catalog.SlugGeneral, n.Family)
	assert.Empty(t, n.Tags)

	labels := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Name", "Email", "Phone", "Attendees", "Session", "State"}, labels)

	known := (&Payload{FormName: catalog.FormMedicare}).Normalize(catalog.Default())
	assert.Equal(t, catalog.SlugMedicare, known.Family)
	assert.Equal(t, []string{"Medicare"}, known.Tags)
}

func TestPayload_RequiredFields(t *testing.T) {
	err := Validate(&Payload{FormName: "Contact"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "first_name")
	assert.Contains(t, verr.Fields, "last_name")
	assert.Contains(t, verr.Fields, "email")
}

func TestFamilies(t *testing.T) {
	assert.Len(t, Families(), 8)
	for _, slug := range Families() {
		f, err := New(slug)
		require.NoError(t, err)
		assert.Equal(t, slug, f.Family())
	}
}

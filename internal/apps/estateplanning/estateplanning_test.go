package estateplanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/northgate-advisors/intake-backend/internal/apps"
	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/northgate-advisors/intake-backend/internal/email"
	"github.com/northgate-advisors/intake-backend/internal/forms"
	"github.com/northgate-advisors/intake-backend/internal/review"
	"github.com/northgate-advisors/intake-backend/internal/services"
	"github.com/northgate-advisors/intake-backend/internal/testutil"
	"github.com/northgate-advisors/intake-backend/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validSteps = map[int]string{
	1: `{"firstName":"Ruth","lastName":"Baker","email":"ruth@x.com","phone":"(555) 222-3333","dateOfBirth":"1955-09-12","maritalStatus":"married","street":"9 Oak Ave","city":"Sarasota","state":"FL","zip":"34236"}`,
	2: `{"spouse":{"name":"Tom Baker","relationship":"spouse"},"children":[{"name":"Amy Baker","relationship":"child"}],"hasDeceasedChild":false,"hasMinorChildren":false}`,
	3: `{"initialTrustee":"self_and_spouse","successorTrustees":[{"name":"Amy Baker","relationship":"child"}]}`,
	4: `{"beneficiaries":[{"name":"Tom Baker","relationship":"spouse","percentage":50},{"name":"Amy Baker","relationship":"child","percentage":50,"perStirpes":true}]}`,
	5: `{"agents":[{"name":"Tom Baker","relationship":"spouse"}],"effective":"immediately"}`,
	6: `{"surrogates":[{"name":"Tom Baker","relationship":"spouse"}],"lifeProlonging":"surrogate_decides","organDonation":"none","hipaaAuthorization":true}`,
	7: `{"items":[{"type":"real_estate","description":"Home","estimatedValue":450000,"fundIntoTrust":true},{"type":"brokerage","description":"Schwab","estimatedValue":120000}]}`,
	8: `{"agreeToTerms":true,"electronicConsent":true,"signature":"Ruth Baker","signedDate":"2026-02-01"}`,
}

func newService(t *testing.T) (*ApplicationService, *email.Outbox) {
	t.Helper()
	db := testutil.NewDB(t, &Application{})
	outbox := email.NewOutbox()
	notifier := services.NewNotificationService(db, outbox, nil, nil, services.NotifierConfig{
		InternalRecipients: []string{"estates@northgate.test"},
	})
	return NewApplicationService(db, catalog.Default(), notifier), outbox
}

func TestDefaultPowers_Vector(t *testing.T) {
	raw, err := json.Marshal(DefaultPowers())
	require.NoError(t, err)
	var got map[string]bool
	require.NoError(t, json.Unmarshal(raw, &got))

	want := map[string]bool{
		"powerRealProperty":              true,
		"powerTangiblePersonalProperty":  true,
		"powerStocksAndBonds":            true,
		"powerBanking":                   true,
		"powerBusinessOperations":        true,
		"powerInsuranceAndAnnuities":     true,
		"powerEstatesAndTrusts":          true,
		"powerClaimsAndLitigation":       true,
		"powerPersonalFamilyMaintenance": true,
		"powerGovernmentBenefits":        true,
		"powerRetirementPlans":           true,
		"powerTaxMatters":                true,
		"powerDigitalAssets":             true,
		"powerFundTrust":                 true,
		"powerGifts":                     false,
		"powerDelegateAuthority":         false,
		"powerBenefitFromActions":        false,
		"powerCommingleFunds":            false,
	}
	assert.Equal(t, want, got)
}

func TestCreate_PrefillsDefaultPowers(t *testing.T) {
	svc, _ := newService(t)

	app, token, err := svc.Create([]byte(validSteps[1]))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 2, app.CurrentStep)

	stored, err := svc.Get(app.ID)
	require.NoError(t, err)
	aif := stored.FormData.Data().AttorneyInFact
	require.NotNil(t, aif)
	assert.Equal(t, DefaultPowers(), aif.Powers)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8}, stored.FormData.Data().Missing(), "powers alone do not answer the step")
}

func TestSaveStep_PowersKeepDefaultsUnlessChanged(t *testing.T) {
	svc, _ := newService(t)
	app, token, err := svc.Create([]byte(validSteps[1]))
	require.NoError(t, err)
	for n := 2; n <= 4; n++ {
		_, err = svc.SaveStep(app.ID, token, n, []byte(validSteps[n]))
		require.NoError(t, err, "step %d", n)
	}

	got, err := svc.SaveStep(app.ID, token, 5, []byte(`{"agents":[{"name":"Tom Baker"}],"effective":"upon_incapacity","powerGifts":true,"powerDigitalAssets":false}`))
	require.NoError(t, err)

	p := got.FormData.Data().AttorneyInFact.Powers
	assert.True(t, p.Gifts)
	assert.False(t, p.DigitalAssets)
	assert.True(t, p.RealProperty)
	assert.False(t, p.CommingleFunds)
	assert.Equal(t, 6, got.CurrentStep)
}

func TestStepRules(t *testing.T) {
	tests := []struct {
		name  string
		step  int
		body  string
		field string
	}{
		{name: "minor children need guardian", step: 2, body: `{"hasDeceasedChild":false,"hasMinorChildren":true}`, field: "guardianForMinors"},
		{name: "other trustee named", step: 3, body: `{"initialTrustee":"other","successorTrustees":[{"name":"A"}]}`, field: "otherTrustee"},
		{name: "successor required", step: 3, body: `{"initialTrustee":"self"}`, field: "successorTrustees"},
		{name: "shares total 100", step: 4, body: `{"beneficiaries":[{"name":"A","relationship":"child","percentage":40}]}`, field: "beneficiaries"},
		{name: "agent required", step: 5, body: `{"effective":"immediately"}`, field: "agents"},
		{name: "specific organs listed", step: 6, body: `{"surrogates":[{"name":"A"}],"lifeProlonging":"withhold","organDonation":"specific"}`, field: "specificOrgans"},
		{name: "asset type known", step: 7, body: `{"items":[{"type":"boat","description":"Yacht"}]}`, field: "type"},
		{name: "must consent", step: 8, body: `{"agreeToTerms":true,"signature":"R","signedDate":"2026-02-01"}`, field: "electronicConsent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewFormData()
			err := d.SetStep(tt.step, []byte(tt.body))
			var verr *forms.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func completeApplication(t *testing.T, svc *ApplicationService) (*Application, string) {
	t.Helper()
	app, token, err := svc.Create([]byte(validSteps[1]))
	require.NoError(t, err)
	for n := 2; n <= TotalSteps; n++ {
		app, err = svc.SaveStep(app.ID, token, n, []byte(validSteps[n]))
		require.NoError(t, err, "step %d", n)
	}
	return app, token
}

func TestSubmit(t *testing.T) {
	svc, outbox := newService(t)
	app, token := completeApplication(t, svc)
	assert.Empty(t, app.FormData.Data().Missing())

	submitted, err := svc.Submit(context.Background(), app.ID, token)
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusSubmitted, submitted.Status)

	msgs := outbox.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, []string{"estates@northgate.test"}, msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "Tom Baker")
	assert.Equal(t, []string{"ruth@x.com"}, msgs[1].To)

	_, err = svc.SetStatus(submitted.ID, wizard.StatusUnderReview, "")
	require.NoError(t, err)
	list, err := svc.List(review.Query{Status: wizard.StatusUnderReview})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHTTP_Flow(t *testing.T) {
	db := testutil.NewDB(t, &Application{})
	notifier := services.NewNotificationService(db, email.NewOutbox(), nil, nil, services.NotifierConfig{})
	p := New()
	p.Init(apps.Deps{DB: db, Catalog: catalog.Default(), Notifier: notifier})
	app := fiber.New()
	p.RegisterRoutes(app.Group("/api/applications"))
	p.RegisterAdminRoutes(app.Group("/api/admin"))

	do := func(method, path, token, body string) (int, map[string]interface{}) {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set(wizard.ResumeHeader, token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		out := map[string]interface{}{}
		_ = json.Unmarshal(raw, &out)
		return resp.StatusCode, out
	}

	status, body := do("GET", "/api/applications/estate-planning/defaults/powers", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["powerGifts"])
	assert.Equal(t, true, body["powerBanking"])

	status, body = do("POST", "/api/applications/estate-planning", "", validSteps[1])
	require.Equal(t, fiber.StatusCreated, status)
	id := body["id"].(string)
	token := body["resume_token"].(string)

	for n := 2; n <= TotalSteps; n++ {
		status, _ = do("PUT", fmt.Sprintf("/api/applications/estate-planning/%s/steps/%d", id, n), token, validSteps[n])
		require.Equal(t, fiber.StatusOK, status, "step %d", n)
	}
	status, body = do("POST", "/api/applications/estate-planning/"+id+"/submit", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, wizard.StatusSubmitted, body["status"])

	status, _ = do("POST", "/api/applications/estate-planning/"+id+"/submit", token, "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = do("GET", "/api/admin/applications/estate-planning/"+id, "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{}, body["missing_steps"])
}

package dealer_test

import (
	"testing"

	"github.com/justcars/go-dealer-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterPayload() dealer.RegisterDealerPayload {
	return dealer.RegisterDealerPayload{
		BusinessName: "Lagos Premium Motors",
		Email:        "sales@lagospremium.ng",
		Phone:        "08012345678",
		Location:     "Lagos",
		Password:     "GoodPass123",
	}
}

func TestRegisterPayloadValidation(t *testing.T) {
	t.Run("valid payload passes", func(t *testing.T) {
		assert.NoError(t, validRegisterPayload().Validate())
	})

	t.Run("whatsapp is optional", func(t *testing.T) {
		p := validRegisterPayload()
		p.Whatsapp = "+2348012345678"
		assert.NoError(t, p.Validate())
	})

	cases := []struct {
		name   string
		mutate func(*dealer.RegisterDealerPayload)
		field  string
	}{
		{"missing business name", func(p *dealer.RegisterDealerPayload) {
			p.BusinessName = ""
		}, "business_name"},
		{"bad email", func(p *dealer.RegisterDealerPayload) {
			p.Email = "not-an-email"
		}, "email"},
		{"missing phone", func(p *dealer.RegisterDealerPayload) {
			p.Phone = ""
		}, "phone"},
		{"unparseable phone", func(p *dealer.RegisterDealerPayload) {
			p.Phone = "not-a-phone"
		}, "phone"},
		{"bad whatsapp number", func(p *dealer.RegisterDealerPayload) {
			p.Whatsapp = "12"
		}, "whatsapp"},
		{"missing location", func(p *dealer.RegisterDealerPayload) {
			p.Location = ""
		}, "location"},
		{"missing password", func(p *dealer.RegisterDealerPayload) {
			p.Password = ""
		}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validRegisterPayload()
			tc.mutate(&p)

			err := p.Validate()
			require.Error(t, err)

			fields := dealer.FormatValidationErrorToMap(err)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	// local Nigerian format and E.164 both parse
	assert.NoError(t, dealer.ValidatePhoneNumber("08012345678"))
	assert.NoError(t, dealer.ValidatePhoneNumber("+2348012345678"))
	// empty passes, Required handles presence
	assert.NoError(t, dealer.ValidatePhoneNumber(""))

	assert.Error(t, dealer.ValidatePhoneNumber("12"))
	assert.Error(t, dealer.ValidatePhoneNumber("not-a-phone"))
}

func TestLoginPayloadValidation(t *testing.T) {
	valid := dealer.LoginDealerPayload{Email: "dealer@example.com", Password: "secret"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, dealer.LoginDealerPayload{Email: "", Password: "secret"}.Validate())
	assert.Error(t, dealer.LoginDealerPayload{Email: "dealer@example.com"}.Validate())
	assert.Error(t, dealer.LoginDealerPayload{Email: "nope", Password: "secret"}.Validate())
}

func TestSetupPasswordPayloadValidation(t *testing.T) {
	valid := dealer.SetupPasswordPayload{
		Email:           "verified@example.com",
		Token:           "some-token",
		Password:        "GoodPass123",
		ConfirmPassword: "GoodPass123",
	}
	assert.NoError(t, valid.Validate())

	mismatched := valid
	mismatched.ConfirmPassword = "OtherPass123"
	err := mismatched.Validate()
	require.Error(t, err)
	assert.Contains(t, dealer.FormatValidationErrorToMap(err), "confirm_password")

	missingToken := valid
	missingToken.Token = ""
	assert.Error(t, missingToken.Validate())
}

func TestAdminDealerActionPayloadValidation(t *testing.T) {
	valid := dealer.AdminDealerActionPayload{
		DealerID: "b3b9c4a8-8c1e-4f7a-9d2e-123456789abc",
		Notes:    "verified CAC registration",
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, dealer.AdminDealerActionPayload{DealerID: ""}.Validate())
	assert.Error(t, dealer.AdminDealerActionPayload{DealerID: "not-a-uuid"}.Validate())
}

func TestFormatValidationErrorToMap(t *testing.T) {
	p := dealer.RegisterDealerPayload{}
	fields := dealer.FormatValidationErrorToMap(p.Validate())

	assert.Contains(t, fields, "business_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "location")
}

package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core"
)

func TestValidatePassword(t *testing.T) {
	enLocale := en.New()
	uniTranslator := ut.New(enLocale, enLocale)
	translator, _ := uniTranslator.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	origCommon := commonPasswords
	commonPasswords = []string{"passw0rd!a"} // sorted, lowercase
	defer func() { commonPasswords = origCommon }()

	newUser := func(pwd string) NewUser {
		return NewUser{
			Name:            "Jane Doe",
			Email:           "jane@test.test",
			Phone:           "+5511999990000",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "aB1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "aB1! aB1!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "aB1aB1aB1", wantTag: pwdComplexityTag},
		{name: "no uppercase", pwd: "ab1!ab1!", wantTag: pwdComplexityTag},
		{name: "similar to email", pwd: "Jane@test.test1", wantTag: pwdAttrSimTag},
		{name: "common password", pwd: "Passw0rd!a", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "G00d.Enough?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(newUser(tt.pwd))
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() error = %v, want nil", err)
				}
				return
			}

			var vErrs validator.ValidationErrors
			if !errors.As(err, &vErrs) {
				t.Fatalf("Struct() error = %v, want validator.ValidationErrors", err)
			}
			found := false
			for _, fe := range vErrs {
				if fe.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Struct() errors = %v, want tag %s", vErrs, tt.wantTag)
			}
		})
	}

	t.Run("update skips empty password", func(t *testing.T) {
		uu := UpdateUser{Name: "Jane Doe", Email: "jane@test.test", Phone: "+5511999990000"}
		if err := validate.Struct(uu); err != nil {
			t.Errorf("Struct() error = %v, want nil", err)
		}
	})
}

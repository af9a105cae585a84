package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Age      int    `json:"age" validate:"gte=18"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Username: "alice",
		Email:    "alice@example.com",
		Age:      20,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Username: "",
		Email:    "invalid",
		Age:      10,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "email" {
			foundEmail = true
		}
	}

	if !foundEmail {
		t.Fatal("expected email field to be present in validation errors")
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("badgegate", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "badgegate"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"badgegate"`
	}

	if err := ValidateStruct(custom{Value: "badgegate"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "other"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}

func TestRFC3339Rule(t *testing.T) {
	type query struct {
		Since string `form:"since" validate:"omitempty,rfc3339"`
	}

	if err := ValidateStruct(query{Since: "2024-05-01T10:00:00Z"}); err != nil {
		t.Fatalf("expected timestamp to validate, got %v", err)
	}
	if err := ValidateStruct(query{}); err != nil {
		t.Fatalf("expected empty value to validate, got %v", err)
	}

	err := ValidateStruct(query{Since: "yesterday"})
	vErrs, ok := err.(ValidationErrors)
	if !ok || len(vErrs) != 1 {
		t.Fatalf("expected one validation error, got %v", err)
	}
	if vErrs[0].Field != "since" || vErrs[0].Tag != "rfc3339" {
		t.Fatalf("unexpected failure: %+v", vErrs[0])
	}
}

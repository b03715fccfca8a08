package validator_test

import (
	"testing"

	"github.com/vedran77/taskmanager/pkg/validator"
)

func ptr(s string) *string { return &s }

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name       string
		userName   string
		email      string
		age        int
		password   *string
		wantFields []string
	}{
		{
			name:     "valid signup",
			userName: "Ann",
			email:    "ann@example.com",
			password: ptr("letitbe1"),
		},
		{
			name:     "password skipped on update",
			userName: "Ann",
			email:    "ann@example.com",
			age:      30,
		},
		{
			name:       "missing name",
			email:      "ann@example.com",
			password:   ptr("letitbe1"),
			wantFields: []string{"name"},
		},
		{
			name:       "malformed email",
			userName:   "Ann",
			email:      "not-an-email",
			password:   ptr("letitbe1"),
			wantFields: []string{"email"},
		},
		{
			name:       "negative age",
			userName:   "Ann",
			email:      "ann@example.com",
			age:        -1,
			wantFields: []string{"age"},
		},
		{
			name:       "short password",
			userName:   "Ann",
			email:      "ann@example.com",
			password:   ptr("abc"),
			wantFields: []string{"password"},
		},
		{
			name:       "password containing the forbidden phrase",
			userName:   "Ann",
			email:      "ann@example.com",
			password:   ptr("MyPassWord1"),
			wantFields: []string{"password"},
		},
		{
			name:       "everything wrong",
			email:      "",
			age:        -5,
			password:   ptr(""),
			wantFields: []string{"name", "email", "age", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateUser(tt.userName, tt.email, tt.age, tt.password)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got errors %v, want fields %v", errs, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := errs[f]; !ok {
					t.Errorf("missing error for %q in %v", f, errs)
				}
			}
		})
	}
}

func TestValidateUserMessages(t *testing.T) {
	errs := validator.ValidateUser("Ann", "ann@example.com", 0, ptr("password123"))
	if got, want := errs["password"], "Password should not contain the phrase 'password'"; got != want {
		t.Errorf("password message = %q, want %q", got, want)
	}

	errs = validator.ValidateUser("Ann", "ann@example.com", 0, ptr("abc"))
	if got, want := errs["password"], "Password must be at least 6 characters"; got != want {
		t.Errorf("password message = %q, want %q", got, want)
	}
}

func TestValidateLogin(t *testing.T) {
	if errs := validator.ValidateLogin("a@x.com", "secret1"); errs.HasErrors() {
		t.Errorf("unexpected errors: %v", errs)
	}
	errs := validator.ValidateLogin("", "")
	if len(errs) != 2 {
		t.Errorf("got %v, want email and password errors", errs)
	}
}

func TestValidateTask(t *testing.T) {
	if errs := validator.ValidateTask("Buy milk"); errs.HasErrors() {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := validator.ValidateTask(""); !errs.HasErrors() {
		t.Error("empty description accepted")
	}
}

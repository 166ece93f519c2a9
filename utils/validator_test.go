package utils

import "testing"

type sampleForm struct {
	Name  string `validate:"required,nameok"`
	Email string `validate:"required,email"`
	Pass  string `validate:"required,pwdmin"`
	Token string `validate:"token64"`
}

func TestValidateStruct_Valid(t *testing.T) {
	f := sampleForm{Name: "Jamie O'Neil", Email: "jamie@example.org", Pass: "longenough", Token: "abc123_-XYZ"}
	if err := ValidateStruct(&f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_Failures(t *testing.T) {
	cases := []struct {
		name string
		form sampleForm
	}{
		{"missing name", sampleForm{Email: "a@b.co", Pass: "longenough"}},
		{"bad email", sampleForm{Name: "A", Email: "not-an-email", Pass: "longenough"}},
		{"short password", sampleForm{Name: "A", Email: "a@b.co", Pass: "short"}},
		{"bad token", sampleForm{Name: "A", Email: "a@b.co", Pass: "longenough", Token: "has space"}},
		{"bad name chars", sampleForm{Name: "<script>", Email: "a@b.co", Pass: "longenough"}},
	}
	for _, c := range cases {
		if err := ValidateStruct(&c.form); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

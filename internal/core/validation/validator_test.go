package validation_test

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/validation"
)

func validRegistration() domain.Registration {
	return domain.Registration{
		Username:    "alice",
		Password:    "secret1",
		PhoneNumber: "13800138000",
	}
}

func TestValidate_Registration(t *testing.T) {
	g := NewWithT(t)

	g.Expect(validation.Validate(validRegistration())).To(Succeed())

	chinese := validRegistration()
	chinese.Username = "张三_x-1"
	g.Expect(validation.Validate(chinese)).To(Succeed())

	cases := map[string]func(*domain.Registration){
		"username":     func(r *domain.Registration) { r.Username = "bad name!" },
		"password":     func(r *domain.Registration) { r.Password = "12345" },
		"phone_number": func(r *domain.Registration) { r.PhoneNumber = "12800138000" },
	}

	for field, mutate := range cases {
		reg := validRegistration()
		mutate(&reg)

		err := validation.Validate(reg)
		g.Expect(err).To(MatchError(domain.ErrValidation), field)

		formatted := validation.FormatValidationErrors(err)
		g.Expect(formatted).To(HaveLen(1), field)
		g.Expect(formatted[0].Field).To(Equal(field))
	}
}

func TestValidate_Messages(t *testing.T) {
	g := NewWithT(t)

	reg := validRegistration()
	reg.Username = ""
	reg.PhoneNumber = "123"

	errs := validation.FormatValidationErrors(validation.Validate(reg))

	g.Expect(errs).To(ConsistOf(
		HaveField("Message", "username is required"),
		HaveField("Message", "phone_number must be a valid mobile phone number"),
	))
}

func TestValidate_TodoFields(t *testing.T) {
	g := NewWithT(t)

	g.Expect(validation.Validate(domain.TodoFields{Title: "ok", Priority: domain.PriorityLow})).To(Succeed())
	g.Expect(validation.Validate(domain.TodoFields{Title: "ok"})).To(Succeed())

	long := strings.Repeat("x", 501)
	err := validation.Validate(domain.TodoFields{Title: "ok", Description: &long})
	g.Expect(validation.FormatValidationErrors(err)).To(ConsistOf(HaveField("Field", "description")))

	err = validation.Validate(domain.TodoFields{Title: "ok", Priority: "urgent"})
	g.Expect(validation.FormatValidationErrors(err)).To(ConsistOf(HaveField("Message", "priority must be one of [high medium low]")))

	err = validation.Validate(domain.TodoFields{Title: strings.Repeat("t", 256)})
	g.Expect(validation.FormatValidationErrors(err)).To(ConsistOf(HaveField("Field", "title")))
}

func TestFormatValidationErrors_DomainError(t *testing.T) {
	g := NewWithT(t)

	errs := validation.FormatValidationErrors(domain.NewValidationError("password", domain.ErrPasswordTooLong))

	g.Expect(errs).To(HaveLen(1))
	g.Expect(errs[0].Field).To(Equal("password"))
	g.Expect(errs[0].Message).To(Equal(domain.ErrPasswordTooLong.Error()))

	g.Expect(validation.FormatValidationErrors(errors.New("boom"))).To(BeEmpty())
}

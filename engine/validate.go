package engine

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate   = newValidator()
	phoneRegex = regexp.MustCompile(`^(\+998|998)?[0-9]{9}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	return v
}

const (
	titleMin           = 5
	titleMax           = 100
	descriptionMin     = 20
	commentMax         = 1000
	stepDescriptionMax = 1000
	nameMin            = 2
	nameMax            = 50
	bioMax             = 500
)

// ValidateMediaURLs checks that every media reference is an absolute URL.
func ValidateMediaURLs(urls []string) error {
	for _, u := range urls {
		if err := validate.Var(u, "required,url"); err != nil {
			return Invalid("each media URL must be a valid URL: %q", u)
		}
	}
	return nil
}

// ValidateTitle trims and length-checks an issue title.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if n := len([]rune(title)); n < titleMin || n > titleMax {
		return "", Invalid("title must be between %d and %d characters", titleMin, titleMax)
	}
	return title, nil
}

// ValidateDescription trims and length-checks an issue description.
func ValidateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if len([]rune(desc)) < descriptionMin {
		return "", Invalid("description must be at least %d characters", descriptionMin)
	}
	return desc, nil
}

// ValidateCommentContent trims and length-checks comment text.
func ValidateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if n := len([]rune(content)); n < 1 || n > commentMax {
		return "", Invalid("comment must be between 1 and %d characters", commentMax)
	}
	return content, nil
}

func validateStepDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if n := len([]rune(desc)); n < 1 || n > stepDescriptionMax {
		return "", Invalid("resolution step description must be between 1 and %d characters", stepDescriptionMax)
	}
	return desc, nil
}

// ValidateName trims and length-checks a first or last name.
func ValidateName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < nameMin || n > nameMax {
		return "", Invalid("%s must be between %d and %d characters", field, nameMin, nameMax)
	}
	return name, nil
}

// ValidateEmail trims and lower-cases an email address.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", Invalid("invalid email format")
	}
	return email, nil
}

// ValidatePhone accepts national numbers with an optional 998 prefix.
func ValidatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if err := validate.Var(phone, "required,phone"); err != nil {
		return "", Invalid("please enter a valid Uzbekistan phone number")
	}
	return phone, nil
}

func ValidateBio(bio string) (string, error) {
	bio = strings.TrimSpace(bio)
	if len([]rune(bio)) > bioMax {
		return "", Invalid("bio cannot exceed %d characters", bioMax)
	}
	return bio, nil
}

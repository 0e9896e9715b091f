package main

import (
	"fmt"
	"strings"
	"unicode"
)

// registerRequest shapes are enforced by gin's binding layer (email format,
// length bounds); the rules binding tags cannot express live in validate.
type registerRequest struct {
	FirstName string `json:"firstname" binding:"required,max=255"`
	LastName  string `json:"lastname" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Username  string `json:"username" binding:"required,min=3,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=255"`
	Repeat    string `json:"repeat" binding:"required"`
}

func (r registerRequest) validate() error {
	if err := validateName("firstname", r.FirstName); err != nil {
		return err
	}
	if err := validateName("lastname", r.LastName); err != nil {
		return err
	}
	if r.Password != r.Repeat {
		return fmt.Errorf("password and repeat did not match")
	}
	return nil
}

func validateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 || len(trimmed) > 255 {
		return fmt.Errorf("%s must be between 3 and 255 characters", field)
	}
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			return fmt.Errorf("%s must not contain numbers", field)
		}
	}
	return nil
}

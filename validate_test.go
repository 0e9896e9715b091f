package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRegisterRequest() registerRequest {
	return registerRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Username:  "janedoe",
		Password:  "Password1!",
		Repeat:    "Password1!",
	}
}

func TestRegisterRequestValid(t *testing.T) {
	assert.NoError(t, validRegisterRequest().validate())
}

func TestRegisterRequestNameRules(t *testing.T) {
	r := validRegisterRequest()
	r.FirstName = "Jo"
	assert.Error(t, r.validate(), "too short")

	r = validRegisterRequest()
	r.FirstName = "J4ne"
	assert.Error(t, r.validate(), "contains a digit")

	r = validRegisterRequest()
	r.LastName = "  D  "
	assert.Error(t, r.validate(), "too short after trimming")
}

func TestRegisterRequestRepeatMismatch(t *testing.T) {
	r := validRegisterRequest()
	r.Repeat = "different"
	assert.Error(t, r.validate())
}

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCreateUserRequest(t *testing.T) {
	valid := func() *CreateUserRequest {
		return &CreateUserRequest{
			Username: "student42",
			Email:    "student@example.com",
			Password: "Sup3r$ecret",
		}
	}

	t.Run("accepts a valid request", func(t *testing.T) {
		assert.NoError(t, validateCreateUserRequest(valid()))
	})

	t.Run("username bounds", func(t *testing.T) {
		req := valid()
		req.Username = ""
		assert.Error(t, validateCreateUserRequest(req))

		req = valid()
		req.Username = "a"
		assert.Error(t, validateCreateUserRequest(req))

		req = valid()
		req.Username = "this-username-is-way-too-long-to-pass"
		assert.Error(t, validateCreateUserRequest(req))
	})

	t.Run("email shape", func(t *testing.T) {
		for _, email := range []string{"", "no-at-sign", "@example.com", "user@", "user@nodot", "user@.com", "user@domain."} {
			req := valid()
			req.Email = email
			assert.Error(t, validateCreateUserRequest(req), "email %q should be rejected", email)
		}
	})

	t.Run("password rules", func(t *testing.T) {
		cases := map[string]string{
			"too short":  "Ab1$",
			"no upper":   "weak$pass1",
			"no lower":   "WEAK$PASS1",
			"no digit":   "Weak$password",
			"no special": "Weakpassword1",
		}
		for name, pw := range cases {
			req := valid()
			req.Password = pw
			assert.Error(t, validateCreateUserRequest(req), "case %s", name)
		}
	})
}

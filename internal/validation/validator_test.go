package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,appemail"`
	Password  string `json:"password" validate:"required,password"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     registerRequest
		wantErr string
	}{
		{"valid", registerRequest{FirstName: "Ada", Email: "ada@example.com", Password: "SecurePass12!@"}, ""},
		{"missing name", registerRequest{Email: "ada@example.com", Password: "SecurePass12!@"}, "first_name is required"},
		{"bad email", registerRequest{FirstName: "Ada", Email: "nope", Password: "SecurePass12!@"}, "invalid email format"},
		{"weak password", registerRequest{FirstName: "Ada", Email: "ada@example.com", Password: "short"}, "password must be at least 12 characters long"},
		{"bad role", registerRequest{FirstName: "Ada", Email: "ada@example.com", Password: "SecurePass12!@", Role: "root"}, "role must be one of: user admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	FullName string `json:"fullname" validate:"required,max=25"`
	Email    string `json:"email" validate:"required,email"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(signupBody{FullName: "Ada", Email: "ada@example.com"}))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(signupBody{Email: "ada@example.com"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, map[string]string{"fullname": "is required"}, valErr.Fields())
	assert.Equal(t, "fullname is required", valErr.First())
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		name  string
		body  signupBody
		field string
		msg   string
	}{
		{"email format", signupBody{FullName: "Ada", Email: "nope"}, "email", "must be a valid email address"},
		{"max length", signupBody{FullName: strings.Repeat("a", 26), Email: "a@b.co"}, "fullname", "must be at most 25 characters"},
		{"oneof", signupBody{FullName: "Ada", Email: "a@b.co", Gender: "x"}, "gender", "must be one of: male female other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var valErr *ValidationError
			require.ErrorAs(t, Validate(tt.body), &valErr)
			assert.Equal(t, tt.msg, valErr.Fields()[tt.field])
		})
	}
}

func TestValidationError_ErrorJoinsFields(t *testing.T) {
	err := Validate(signupBody{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fullname is required")
	assert.Contains(t, err.Error(), "email is required")
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"fullname":"Ada","email":"ada@example.com"}`))
		var dst signupBody
		require.NoError(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst))
		assert.Equal(t, "Ada", dst.FullName)
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var dst signupBody
		assert.ErrorIs(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst), ErrEmptyBody)
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"fullname":`))
		var dst signupBody
		err := DecodeAndValidate(httptest.NewRecorder(), r, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"fullname":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var dst signupBody
		assert.Error(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst))
	})

	t.Run("invalid fields", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ada@example.com"}`))
		var dst signupBody
		var valErr *ValidationError
		assert.ErrorAs(t, DecodeAndValidate(httptest.NewRecorder(), r, &dst), &valErr)
	})
}

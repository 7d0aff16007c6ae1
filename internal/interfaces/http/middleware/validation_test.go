package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationInput struct {
	DocumentType string  `json:"document_type" binding:"required,document_type"`
	Prefix       *string `json:"prefix" binding:"omitempty,doc_prefix"`
	Customer     string  `json:"customer_name" binding:"required,min=2,max=5"`
	Status       string  `form:"status" binding:"omitempty,oneof=issued voided"`
}

func bindInput(t *testing.T, body string) error {
	t.Helper()
	SetupValidator()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var in validationInput
	return c.ShouldBindJSON(&in)
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	_, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
}

func TestValidationDetails(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{
			name:    "unknown document type",
			body:    `{"document_type":"QUOTE","customer_name":"Sam"}`,
			field:   "document_type",
			message: "Must be one of: INVOICE, DEPOSIT_RECEIPT, CREDIT_NOTE",
		},
		{
			name:    "document type case is ignored",
			body:    `{"document_type":"invoice","customer_name":"Sam","prefix":"IN V"}`,
			field:   "prefix",
			message: "Must be at most 10 letters, digits, '-' or '/'",
		},
		{
			name:    "required",
			body:    `{"document_type":"INVOICE"}`,
			field:   "customer_name",
			message: "This field is required",
		},
		{
			name:    "string too short",
			body:    `{"document_type":"INVOICE","customer_name":"S"}`,
			field:   "customer_name",
			message: "Must be at least 2 characters",
		},
		{
			name:    "string too long",
			body:    `{"document_type":"INVOICE","customer_name":"Samantha"}`,
			field:   "customer_name",
			message: "Must be at most 5 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bindInput(t, tt.body)
			require.Error(t, err)

			details := ValidationDetails(err)
			require.Len(t, details, 1)
			assert.Equal(t, tt.field, details[0].Field)
			assert.Equal(t, tt.message, details[0].Message)
		})
	}
}

func TestValidationDetails_Valid(t *testing.T) {
	err := bindInput(t, `{"document_type":"CREDIT_NOTE","customer_name":"Sam","prefix":"CN/24-"}`)
	assert.NoError(t, err)
}

func TestValidationDetails_NotValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))

	err := bindInput(t, `{"document_type":`)
	require.Error(t, err)
	assert.Nil(t, ValidationDetails(err))
}

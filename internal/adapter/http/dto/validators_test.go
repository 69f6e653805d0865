package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateAccountRequest{
		AccountID: "  acc-1  ",
		Name:      " Luke ",
		Gender:    " male",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "acc-1", req.AccountID)
	assert.Equal(t, "Luke", req.Name)
	assert.Equal(t, "male", req.Gender)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateAccountRequest{Name: "Leia <script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Name, "&lt;script&gt;")
	assert.NotContains(t, req.Name, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	note := "  <b>hi</b>  "
	req := struct {
		Note  *string
		Empty *string
	}{Note: &note}
	SanitizeStruct(&req)

	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", *req.Note)
	assert.Nil(t, req.Empty)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ref-001",
		"REF_002",
		"a.b.c",
		"simple123",
		"8a4f3c4e-7c0f-4d55-9f0b-0e9b5b1c2d3e",
	}
	for _, tc := range cases {
		assert.True(t, IsSafeID(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",     // space
		"ref<001>",    // angle brackets
		"ref;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"ref\n001",    // newline
		"a-very-long-identifier-that-keeps-going-past-the-sixty-four-character-limit",
	}
	for _, tc := range cases {
		assert.False(t, IsSafeID(tc), "expected invalid: %s", tc)
	}
}

func TestBinding_TransferRequest(t *testing.T) {
	valid := TransferRequest{SourceID: "acc-1", DestinationID: "acc-2", Amount: 10}
	assert.NoError(t, binding.Validator.ValidateStruct(&valid))

	bad := []TransferRequest{
		{SourceID: "acc-1", DestinationID: "acc-2"},
		{SourceID: "acc 1", DestinationID: "acc-2", Amount: 10},
		{DestinationID: "acc-2", Amount: 10},
		{TransactionID: "tx;1", SourceID: "acc-1", DestinationID: "acc-2", Amount: 10},
	}
	for _, req := range bad {
		assert.Error(t, binding.Validator.ValidateStruct(&req), "%+v", req)
	}
}

func TestBinding_CreateAccountRequest(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&CreateAccountRequest{Name: "Han", Gender: "MALE"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CreateAccountRequest{Name: "Han", Gender: "droid"}))
	assert.Error(t, binding.Validator.ValidateStruct(&CreateAccountRequest{Name: "Han", InitialBalance: -1}))
	assert.Error(t, binding.Validator.ValidateStruct(&CreateAccountRequest{}))
}

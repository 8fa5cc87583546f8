package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCategory_ProfileValid(t *testing.T) {
	err := ValidateCategory("profile", `{"years_experience": 10, "languages": ["Go"]}`)
	assert.NoError(t, err)
}

func TestValidateCategory_ProfileEmpty(t *testing.T) {
	err := ValidateCategory("profile", `{}`)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "profile", validation.Category)
	assert.NotEmpty(t, validation.Errors)
}

func TestValidateCategory_ProfileNestedObjectRejected(t *testing.T) {
	err := ValidateCategory("profile", `{"education": {"school": "MIT"}}`)

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestValidateCategory_SummaryValid(t *testing.T) {
	err := ValidateCategory("summary", `{"summary": "Strong round."}`)
	assert.NoError(t, err)
}

func TestValidateCategory_SummaryMissingField(t *testing.T) {
	err := ValidateCategory("summary", `{"notes": "no summary key"}`)

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestValidateCategory_SummaryEmptyString(t *testing.T) {
	err := ValidateCategory("summary", `{"summary": ""}`)

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestValidateCategory_MetadataValid(t *testing.T) {
	err := ValidateCategory("metadata", `{"summary": "A recording.", "fields": {"duration_minutes": 45}}`)
	assert.NoError(t, err)
}

func TestValidateCategory_MetadataExtraKeyRejected(t *testing.T) {
	err := ValidateCategory("metadata", `{"summary": "x", "verdict": "hire"}`)

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestValidateCategory_PreferencesValid(t *testing.T) {
	err := ValidateCategory("preferences", `{"desired_salary": 185000, "remote": "hybrid"}`)
	assert.NoError(t, err)
}

func TestValidateCategory_UnknownCategory(t *testing.T) {
	err := ValidateCategory("horoscope", `{}`)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "horoscope", loadErr.Category)
}

func TestValidationError_MessageListsFields(t *testing.T) {
	err := ValidateCategory("summary", `{"summary": 42}`)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Error(), "summary schema")
}

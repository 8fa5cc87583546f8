package server

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs?limit=25", nil)
	assert.Equal(t, 25, parseQueryInt(r, "limit", 100, 500))
}

func TestParseQueryInt_Default(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs", nil)
	assert.Equal(t, 100, parseQueryInt(r, "limit", 100, 500))
}

func TestParseQueryInt_ClampsToMax(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs?limit=9999", nil)
	assert.Equal(t, 500, parseQueryInt(r, "limit", 100, 500))
}

func TestParseQueryInt_Invalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs?limit=lots", nil)
	assert.Equal(t, 100, parseQueryInt(r, "limit", 100, 500))

	r = httptest.NewRequest("GET", "/jobs?limit=-5", nil)
	assert.Equal(t, 100, parseQueryInt(r, "limit", 100, 500))
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest("GET", "/jobs/"+id.String(), nil)
	r.SetPathValue("id", id.String())

	parsed, err := pathUUID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPathUUID_Invalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/jobs/not-a-uuid", nil)
	r.SetPathValue("id", "not-a-uuid")

	_, err := pathUUID(r, "id")

	var validation *ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "id", validation.Field)
}

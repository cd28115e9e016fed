package reference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDOB(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "iso", raw: "1990-08-15", expected: "1990-08-15", ok: true},
		{name: "day first dashes", raw: "15-08-1990", expected: "1990-08-15", ok: true},
		{name: "day first slashes", raw: "15/08/1990", expected: "1990-08-15", ok: true},
		{name: "month abbreviation", raw: "15-Aug-1990", expected: "1990-08-15", ok: true},
		{name: "month abbreviation lower case", raw: "15-aug-1990", expected: "1990-08-15", ok: true},
		{name: "surrounding whitespace", raw: " 1990-08-15 ", expected: "1990-08-15", ok: true},
		{name: "impossible day", raw: "31-02-1990", expected: "", ok: false},
		{name: "unknown layout", raw: "August 15, 1990", expected: "", ok: false},
		{name: "empty", raw: "", expected: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDOB(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeDOBIsIdempotent(t *testing.T) {
	for _, raw := range []string{"1990-08-15", "01-01-1950", "29/02/2000", "05-Dec-1985"} {
		once, ok := NormalizeDOB(raw)
		require.True(t, ok, raw)
		twice, ok := NormalizeDOB(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice)
	}
}

func TestDecodeIDNumber(t *testing.T) {
	t.Run("valid base64", func(t *testing.T) {
		got, ok := DecodeIDNumber("MTIzNDU2Nzg5MDEy")
		assert.True(t, ok)
		assert.Equal(t, "123456789012", got)
	})

	t.Run("round trip", func(t *testing.T) {
		got, ok := DecodeIDNumber(EncodeIDNumber("987654321098"))
		assert.True(t, ok)
		assert.Equal(t, "987654321098", got)
	})

	t.Run("invalid base64 decodes to empty", func(t *testing.T) {
		got, ok := DecodeIDNumber("not*base64!")
		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestStripHonorific(t *testing.T) {
	tests := map[string]string{
		"Mr. Rahul Sharma":  "Rahul Sharma",
		"MRS KUMARI DEVI":   "KUMARI DEVI",
		"shri ram prasad":   "ram prasad",
		"Smt.Lakshmi":       "Lakshmi",
		"Ms Anita":          "Anita",
		"Mrinal Sen":        "Mrinal Sen",
		"Smita Patil":       "Smita Patil",
		"  Rahul Sharma  ":  "Rahul Sharma",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, StripHonorific(in), in)
	}
}

func TestRecordJSON(t *testing.T) {
	payload := `{
		"first_name": "Rahul",
		"middle_name": "",
		"last_name": "Sharma",
		"gender": "Male",
		"dateOfbirth": "15-08-1990",
		"aadhar_number": "MTIzNDU2Nzg5MDEy"
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, "rahul sharma", rec.FullName())
	assert.Equal(t, "1990-08-15", rec.NormalizedDOB())
	assert.Equal(t, "male", rec.NormalizedGender())
	assert.Equal(t, "123456789012", rec.DecodedIDNumber())
}

func TestRecordMissingKeysAreEmpty(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Mr. Rahul"}`), &rec))

	assert.Equal(t, "rahul", rec.FullName())
	assert.Empty(t, rec.NormalizedDOB())
	assert.Empty(t, rec.NormalizedGender())
	assert.Empty(t, rec.DecodedIDNumber())
}

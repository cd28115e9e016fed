package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/batch"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/reference"
	"docverify/internal/verification/models"
)

func TestParseManifest(t *testing.T) {
	t.Run("yaml manifest with base url", func(t *testing.T) {
		m, err := parseManifest([]byte(`
base_url: https://docs.example.org
applicants:
  - auth_id: APP-1
    first_name: Ravi
    last_name: Kumar
    gender: Male
    dateOfbirth: 15-01-1990
    aadhar_number: MTIzNDU2Nzg5MDEy
    aadhaar_doc: uploads/app-1.pdf
  - auth_id: APP-2
    first_name: Sita
`))
		require.NoError(t, err)
		assert.Equal(t, "https://docs.example.org", m.BaseURL)
		require.Len(t, m.Applicants, 2)
		assert.Equal(t, "15-01-1990", m.Applicants[0].DateOfBirth)
		assert.Equal(t, "123456789012", m.Applicants[0].DecodedIDNumber())

		jobs := m.jobs()
		require.Len(t, jobs, 2)
		assert.Equal(t, "uploads/app-1.pdf", jobs[0].DocumentLocation())
	})

	t.Run("registry export list", func(t *testing.T) {
		m, err := parseManifest([]byte(`[{"auth_id": "APP-7", "aadhaar_doc": "a.pdf", "gender": "Female"}]`))
		require.NoError(t, err)
		require.Len(t, m.Applicants, 1)
		assert.Equal(t, reference.Record{ApplicantID: "APP-7", DocumentPath: "a.pdf", Gender: "Female"}, m.Applicants[0])
		assert.Empty(t, m.BaseURL)
	})

	t.Run("empty manifest", func(t *testing.T) {
		_, err := parseManifest([]byte(`applicants: []`))
		assert.Error(t, err)
	})
}

func TestReportFormat(t *testing.T) {
	tests := []struct {
		format, output, want string
		wantErr              bool
	}{
		{want: "json"},
		{output: "out/report.XLSX", want: "xlsx"},
		{output: "report.csv", want: "csv"},
		{format: "csv", output: "report.txt", want: "csv"},
		{format: "pdf", wantErr: true},
		{output: "report.txt", wantErr: true},
	}
	for _, tt := range tests {
		got, err := reportFormat(tt.format, tt.output)
		if tt.wantErr {
			assert.Error(t, err, "%q %q", tt.format, tt.output)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteReport(t *testing.T) {
	report := &batch.Report{
		Results: []batch.Result{{Job: models.Job{Reference: reference.Record{ApplicantID: "APP-1"}}, Err: os.ErrNotExist}},
		Summary: batch.Summary{Total: 1, Failed: 1, FailedPct: 100},
	}

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeReport(&out, "", "csv", report))
		assert.True(t, strings.HasPrefix(out.String(), "auth_id,status"))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, writeReport(nil, path, "json", report))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"failed": 1`)
	})
}

func TestTokenCommand(t *testing.T) {
	const key = "0123456789abcdef0123456789abcdef"
	t.Setenv("JWT_SIGNING_KEY", key)
	t.Setenv("JWT_ISSUER", "docverify-test")
	t.Setenv("JWT_AUDIENCE", "docverify-api")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--subject", "nightly-batch", "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	claims, err := jwttoken.NewJWTService(key, "docverify-test", "docverify-api").
		ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "nightly-batch", claims.Subject)
	assert.Equal(t, "verify", claims.Scope)
}

func TestBatchRequiresSource(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"batch"})
	assert.Error(t, cmd.Execute())
}

package handler

import (
	"strings"

	"docverify/internal/reference"
	"docverify/internal/verification/models"
	dErrors "docverify/pkg/domain-errors"
)

const maxLocationLength = 2048

// VerifyRequest is the HTTP request body for POST /verify.
type VerifyRequest struct {
	// Document is a URL or a path relative to the document base URL. When empty the
	// reference's aadhaar_doc is used.
	Document  string           `json:"document"`
	Reference reference.Record `json:"reference"`
}

// Validate implements httputil.Validatable.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Document = strings.TrimSpace(r.Document)
	r.Reference.DocumentPath = strings.TrimSpace(r.Reference.DocumentPath)
	if len(r.Document) > maxLocationLength || len(r.Reference.DocumentPath) > maxLocationLength {
		return dErrors.New(dErrors.CodeValidation, "document location is too long")
	}
	if r.Document == "" && r.Reference.DocumentPath == "" {
		return dErrors.New(dErrors.CodeValidation, "document or reference.aadhaar_doc is required")
	}
	if strings.Contains(r.Document, "..") || strings.Contains(r.Reference.DocumentPath, "..") {
		return dErrors.New(dErrors.CodeValidation, "document location must not contain '..'")
	}

	if strings.TrimSpace(r.Reference.IDNumber) == "" {
		return dErrors.New(dErrors.CodeValidation, "reference.aadhar_number is required")
	}
	if _, ok := reference.DecodeIDNumber(r.Reference.IDNumber); !ok {
		return dErrors.New(dErrors.CodeValidation, "reference.aadhar_number must be base64 encoded")
	}
	return nil
}

// Job converts the request into a verification job.
func (r *VerifyRequest) Job() models.Job {
	return models.Job{Reference: r.Reference, Location: r.Document}
}

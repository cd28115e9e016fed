package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"docverify/internal/reference"
	"docverify/internal/verification/models"
)

// manifest lists the applicants of a batch. A bare list of applicant records, the
// registry's export format, is accepted too.
type manifest struct {
	// BaseURL overrides DOCUMENT_BASE_URL for relative aadhaar_doc paths.
	BaseURL    string             `yaml:"base_url"`
	Applicants []reference.Record `yaml:"applicants"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (*manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err == nil && len(m.Applicants) > 0 {
		return &m, nil
	}

	var list []reference.Record
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("manifest lists no applicants")
	}
	return &manifest{Applicants: list}, nil
}

func (m *manifest) jobs() []models.Job {
	jobs := make([]models.Job, len(m.Applicants))
	for i, ref := range m.Applicants {
		jobs[i] = models.Job{Reference: ref}
	}
	return jobs
}

func loadReference(path string) (reference.Record, error) {
	var ref reference.Record
	data, err := os.ReadFile(path)
	if err != nil {
		return ref, fmt.Errorf("read reference: %w", err)
	}
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return ref, fmt.Errorf("parse reference: %w", err)
	}
	return ref, nil
}

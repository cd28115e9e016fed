package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Row is the flat per-document record written by every report format.
type Row struct {
	ApplicantID     string  `json:"auth_id"`
	Status          string  `json:"status"`
	Decision        string  `json:"decision,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Error           string  `json:"error,omitempty"`
	ExtractedName   string  `json:"extracted_name,omitempty"`
	ExtractedDOB    string  `json:"extracted_dob,omitempty"`
	ExtractedGender string  `json:"extracted_gender,omitempty"`
	NameMatch       bool    `json:"name_match"`
	DOBMatch        bool    `json:"dob_match"`
	GenderMatch     bool    `json:"gender_match"`
	IDMatch         bool    `json:"aadhaar_match"`
	NameScore       int     `json:"name_score"`
	Rotation        int     `json:"rotation"`
	OCRConfidence   float64 `json:"ocr_confidence"`
	RefNumber       string  `json:"aadhaar_refnum,omitempty"`
}

const statusFailed = "Failed"

var rowHeader = []string{
	"auth_id", "status", "decision", "reason", "error",
	"extracted_name", "extracted_dob", "extracted_gender",
	"name_match", "dob_match", "gender_match", "aadhaar_match",
	"name_score", "rotation", "ocr_confidence", "aadhaar_refnum",
}

// Rows flattens results in job order.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, len(r.Results))
	for _, res := range r.Results {
		row := Row{ApplicantID: res.Job.Reference.ApplicantID}
		if res.Failed() || res.Outcome == nil {
			row.Status = statusFailed
			if res.Err != nil {
				row.Error = res.Err.Error()
			}
			rows = append(rows, row)
			continue
		}
		o := res.Outcome
		row.Status = string(o.Status())
		row.Decision = string(o.Match.Decision)
		row.Reason = o.Match.Reason()
		row.ExtractedName = o.Extracted.Name
		row.ExtractedDOB = o.Extracted.DOB
		row.ExtractedGender = o.Extracted.Gender
		row.NameMatch = o.Match.NameMatch
		row.DOBMatch = o.Match.DOBMatch
		row.GenderMatch = o.Match.GenderMatch
		row.IDMatch = o.Match.IDMatch
		row.NameScore = o.Match.NameScore
		row.Rotation = int(o.Rotation)
		row.OCRConfidence = o.MeanConfidence
		row.RefNumber = o.RefNumber
		rows = append(rows, row)
	}
	return rows
}

func (row Row) values() []string {
	return []string{
		row.ApplicantID, row.Status, row.Decision, row.Reason, row.Error,
		row.ExtractedName, row.ExtractedDOB, row.ExtractedGender,
		strconv.FormatBool(row.NameMatch), strconv.FormatBool(row.DOBMatch),
		strconv.FormatBool(row.GenderMatch), strconv.FormatBool(row.IDMatch),
		strconv.Itoa(row.NameScore), strconv.Itoa(row.Rotation),
		strconv.FormatFloat(row.OCRConfidence, 'f', 2, 64), row.RefNumber,
	}
}

type jsonReport struct {
	Summary Summary `json:"summary"`
	Results []Row   `json:"results"`
}

// WriteJSON writes the summary and rows as one indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Summary: r.Summary, Results: r.Rows()})
}

// WriteCSV writes one header line and one line per document.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rowHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := cw.Write(row.values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with a Results sheet and a Summary sheet.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	if err := setRow(f, resultsSheet, 1, toAny(rowHeader)); err != nil {
		return err
	}
	for i, row := range r.Rows() {
		cells := []any{
			row.ApplicantID, row.Status, row.Decision, row.Reason, row.Error,
			row.ExtractedName, row.ExtractedDOB, row.ExtractedGender,
			row.NameMatch, row.DOBMatch, row.GenderMatch, row.IDMatch,
			row.NameScore, row.Rotation, row.OCRConfidence, row.RefNumber,
		}
		if err := setRow(f, resultsSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := r.Summary
	summary := [][]any{
		{"metric", "value"},
		{"total", s.Total},
		{"accepted", s.Accepted},
		{"manual_review", s.ManualReview},
		{"failed", s.Failed},
		{"accepted_pct", s.AcceptedPct},
		{"manual_review_pct", s.ManualReviewPct},
		{"failed_pct", s.FailedPct},
		{"name_match_pct", s.NameMatchPct},
		{"dob_match_pct", s.DOBMatchPct},
		{"gender_match_pct", s.GenderMatchPct},
		{"aadhaar_match_pct", s.IDMatchPct},
		{"duration_seconds", s.Duration().Seconds()},
	}
	for i, cells := range summary {
		if err := setRow(f, summarySheet, i+1, cells); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

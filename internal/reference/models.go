// Package reference holds the trusted applicant record that extracted document
// fields are verified against, and the normalization applied to each of its fields.
package reference

// Record is a reference identity record as stored by the applicant registry.
// The ID number is kept base64-encoded at rest; callers use DecodedIDNumber.
//
// Missing JSON keys decode to empty strings, which never match an extracted value.
type Record struct {
	ApplicantID  string `json:"auth_id,omitempty" yaml:"auth_id"`
	FirstName    string `json:"first_name" yaml:"first_name"`
	MiddleName   string `json:"middle_name" yaml:"middle_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Gender       string `json:"gender" yaml:"gender"`
	DateOfBirth  string `json:"dateOfbirth" yaml:"dateOfbirth"`
	IDNumber     string `json:"aadhar_number" yaml:"aadhar_number"`
	DocumentPath string `json:"aadhaar_doc,omitempty" yaml:"aadhaar_doc"`
}

// FullName returns the normalized comparison name: non-empty name parts joined by a
// single space, honorific removed, lower-cased.
func (r Record) FullName() string {
	return NormalizeName(r.FirstName + " " + r.MiddleName + " " + r.LastName)
}

// NormalizedDOB returns the reference date of birth as YYYY-MM-DD, or "" when it
// matches none of the accepted layouts.
func (r Record) NormalizedDOB() string {
	dob, _ := NormalizeDOB(r.DateOfBirth)
	return dob
}

// NormalizedGender returns the lower-cased, trimmed gender.
func (r Record) NormalizedGender() string {
	return NormalizeGender(r.Gender)
}

// DecodedIDNumber returns the plain ID number, or "" when the stored value is not
// valid base64.
func (r Record) DecodedIDNumber() string {
	decoded, _ := DecodeIDNumber(r.IDNumber)
	return decoded
}

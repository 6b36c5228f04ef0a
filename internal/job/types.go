// Package job defines the normalized job record produced by the extraction pipeline.
package job

import (
	"errors"
	"strings"
)

// UnknownSource tags results that no extractor produced.
const UnknownSource = "UNKNOWN"

// UnknownCompany is emitted when no company signal could be found on a posting.
const UnknownCompany = "Unknown Company"

// CompensationType classifies the unit of a compensation amount.
type CompensationType string

// Compensation units.
const (
	CompensationHourly  CompensationType = "HOURLY"
	CompensationAnnual  CompensationType = "ANNUAL"
	CompensationUnknown CompensationType = "UNKNOWN"
)

// ExperienceLevel is the seniority bucket of a posting. The empty value means no signal.
type ExperienceLevel string

// Experience levels.
const (
	ExperienceIntern ExperienceLevel = "INTERN"
	ExperienceJunior ExperienceLevel = "JUNIOR"
	ExperienceMid    ExperienceLevel = "MID"
	ExperienceSenior ExperienceLevel = "SENIOR"
)

// CompensationInfo is the transient output of salary-text heuristics.
type CompensationInfo struct {
	Amount *float64
	Type   CompensationType
}

// Fields carries the extracted values used to build a successful ParseResult.
type Fields struct {
	Title            string
	Company          string
	Location         string
	Description      string
	Compensation     *float64
	CompensationType CompensationType
	ExperienceLevel  ExperienceLevel
}

// ParseResult is the outcome of one parse attempt. Values are returned by value and
// never mutated after construction; build them with Success or Failure.
type ParseResult struct {
	Successful       bool             `json:"successful" yaml:"successful"`
	Source           string           `json:"source" yaml:"source"`
	OriginalURL      string           `json:"original_url" yaml:"original_url"`
	JobTitle         string           `json:"job_title,omitempty" yaml:"job_title,omitempty"`
	Company          string           `json:"company,omitempty" yaml:"company,omitempty"`
	Location         string           `json:"location,omitempty" yaml:"location,omitempty"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	Compensation     *float64         `json:"compensation,omitempty" yaml:"compensation,omitempty"`
	CompensationType CompensationType `json:"compensation_type,omitempty" yaml:"compensation_type,omitempty"`
	ExperienceLevel  ExperienceLevel  `json:"experience_level,omitempty" yaml:"experience_level,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Success builds a successful result from extracted fields.
func Success(source, originalURL string, f Fields) ParseResult {
	var comp *float64
	if f.Compensation != nil {
		v := *f.Compensation
		comp = &v
	}
	compType := f.CompensationType
	if compType == "" {
		compType = CompensationUnknown
	}
	return ParseResult{
		Successful:       true,
		Source:           source,
		OriginalURL:      originalURL,
		JobTitle:         f.Title,
		Company:          f.Company,
		Location:         f.Location,
		Description:      f.Description,
		Compensation:     comp,
		CompensationType: compType,
		ExperienceLevel:  f.ExperienceLevel,
	}
}

// Failure builds a failed result. An empty message is replaced so the result
// always carries a human-readable reason.
func Failure(source, originalURL, message string) ParseResult {
	if strings.TrimSpace(message) == "" {
		message = "parse failed"
	}
	return ParseResult{
		Successful:   false,
		Source:       source,
		OriginalURL:  originalURL,
		ErrorMessage: message,
	}
}

// FailureFromError builds a failed result from an error.
func FailureFromError(source, originalURL string, err error) ParseResult {
	if err == nil {
		return Failure(source, originalURL, "")
	}
	return Failure(source, originalURL, err.Error())
}

// Validate checks the success/error-message invariant.
func (r ParseResult) Validate() error {
	switch {
	case r.Successful && r.ErrorMessage != "":
		return errors.New("successful result must not carry an error message")
	case !r.Successful && r.ErrorMessage == "":
		return errors.New("failed result must carry an error message")
	}
	return nil
}

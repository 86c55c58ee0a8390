package application

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusRejected = "rejected"
	StatusHired    = "hired"
)

// ErrAlreadyApplied is returned when (job, applicant) already has a record.
var ErrAlreadyApplied = errors.New("already applied for this job")

type Application struct {
	ID          string         `json:"_id"`
	JobID       string         `json:"jobId"`
	ApplicantID string         `json:"applicantId"`
	RecruiterID string         `json:"recruiterId"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"applicationDate"`
	TimeAgo     string         `json:"timeAgo,omitempty"`
	Job         JobSummary     `json:"job"`
	Applicant   ApplicantBrief `json:"applicant"`
}

type JobSummary struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	CompanyName string `json:"companyName"`
}

type ApplicantBrief struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	ResumeURL string `json:"resumeUrl,omitempty"`
}

type StatusRq struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed rejected hired"`
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusRejected, StatusHired:
		return true
	}
	return false
}

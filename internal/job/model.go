package job

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/talentboard/job-portal/internal/user"
)

const (
	LatestJobsLimit = 10
	FeedJobsLimit   = 20
)

type Job struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Category    string       `json:"category"`
	Salary      int64        `json:"salary"`
	Slug        string       `json:"slug"`
	RecruiterID string       `json:"recruiterId"`
	Recruiter   user.Summary `json:"recruiter"`
	CreatedAt   time.Time    `json:"date"`
	TimeAgo     string       `json:"timeAgo"`
}

type JobRq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Location    string `json:"location" validate:"required,max=255"`
	Category    string `json:"category" validate:"required,max=255"`
	Salary      int64  `json:"salary" validate:"gte=0"`
}

// JobRqUpdate carries a partial update, nil fields are left untouched.
type JobRqUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1"`
	Location    *string `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=1,max=255"`
	Salary      *int64  `json:"salary,omitempty" validate:"omitempty,gte=0"`
}

// Sanitize strips markup from every free text field.
func (rq *JobRq) Sanitize() {
	p := bluemonday.StrictPolicy()
	rq.Title = strings.TrimSpace(p.Sanitize(rq.Title))
	rq.Description = strings.TrimSpace(p.Sanitize(rq.Description))
	rq.Location = strings.TrimSpace(p.Sanitize(rq.Location))
	rq.Category = strings.TrimSpace(p.Sanitize(rq.Category))
}

// Apply copies the set fields of rq onto j, sanitizing them on the way.
func (rq *JobRqUpdate) Apply(j *Job) {
	p := bluemonday.StrictPolicy()
	if rq.Title != nil {
		j.Title = strings.TrimSpace(p.Sanitize(*rq.Title))
	}
	if rq.Description != nil {
		j.Description = strings.TrimSpace(p.Sanitize(*rq.Description))
	}
	if rq.Location != nil {
		j.Location = strings.TrimSpace(p.Sanitize(*rq.Location))
	}
	if rq.Category != nil {
		j.Category = strings.TrimSpace(p.Sanitize(*rq.Category))
	}
	if rq.Salary != nil {
		j.Salary = *rq.Salary
	}
}

func (j *Job) humanize() {
	j.TimeAgo = humanize.Time(j.CreatedAt)
}

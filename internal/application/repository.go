package application

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"
	"github.com/talentboard/job-portal/internal/database"
)

const applicationQuery = `SELECT a.id, a.job_id, a.applicant_id, a.recruiter_id, a.status, a.created_at,
	COALESCE(j.title, ''), COALESCE(j.category, ''), COALESCE(j.location, ''), COALESCE(r.name, ''),
	COALESCE(p.name, ''), COALESCE(p.email, ''), COALESCE(p.resume_url, '')
	FROM application a
	LEFT JOIN job j ON j.id = a.job_id
	LEFT JOIN users r ON r.id = a.recruiter_id
	LEFT JOIN users p ON p.id = a.applicant_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// HasApplied reports whether applicantID already applied to jobID.
func (r *Repository) HasApplied(jobID, applicantID string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM application WHERE job_id = $1 AND applicant_id = $2)`, jobID, applicantID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SaveApplication inserts a pending application. The unique index on
// (job_id, applicant_id) turns a lost race into ErrAlreadyApplied.
func (r *Repository) SaveApplication(jobID, applicantID, recruiterID string) (*Application, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return nil, err
	}
	a := &Application{
		ID:          id.String(),
		JobID:       jobID,
		ApplicantID: applicantID,
		RecruiterID: recruiterID,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = r.db.Exec(
		`INSERT INTO application (id, job_id, applicant_id, recruiter_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID,
		a.JobID,
		a.ApplicantID,
		a.RecruiterID,
		a.Status,
		a.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, err
	}
	a.TimeAgo = humanize.Time(a.CreatedAt)
	return a, nil
}

func (r *Repository) ApplicationByID(id string) (*Application, error) {
	row := r.db.QueryRow(applicationQuery+` WHERE a.id = $1`, id)
	return scanApplication(row)
}

func (r *Repository) ApplicationsForApplicant(applicantID string) ([]*Application, error) {
	return r.query(`WHERE a.applicant_id = $1`, applicantID)
}

func (r *Repository) ApplicationsForRecruiter(recruiterID string) ([]*Application, error) {
	return r.query(`WHERE a.recruiter_id = $1`, recruiterID)
}

func (r *Repository) UpdateStatus(id, status string) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid application status %q", status)
	}
	res, err := r.db.Exec(`UPDATE application SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *Repository) DeleteApplication(id string) error {
	res, err := r.db.Exec(`DELETE FROM application WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *Repository) query(where string, args ...interface{}) ([]*Application, error) {
	rows, err := r.db.Query(applicationQuery+` `+where+` ORDER BY a.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applications := []*Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return applications, err
		}
		applications = append(applications, a)
	}
	if err := rows.Err(); err != nil {
		return applications, err
	}
	return applications, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*Application, error) {
	a := &Application{}
	err := row.Scan(
		&a.ID,
		&a.JobID,
		&a.ApplicantID,
		&a.RecruiterID,
		&a.Status,
		&a.CreatedAt,
		&a.Job.Title,
		&a.Job.Category,
		&a.Job.Location,
		&a.Job.CompanyName,
		&a.Applicant.Name,
		&a.Applicant.Email,
		&a.Applicant.ResumeURL,
	)
	if err != nil {
		return nil, err
	}
	a.TimeAgo = humanize.Time(a.CreatedAt)
	return a, nil
}

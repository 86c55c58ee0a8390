package job

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/talentboard/job-portal/internal/database"
)

const jobColumns = `j.id, j.title, j.description, j.location, j.category, j.salary, j.slug, j.recruiter_id, j.created_at, COALESCE(u.name, ''), COALESCE(u.profile_pic_url, '')`

const jobFrom = ` FROM job j LEFT JOIN users u ON u.id = j.recruiter_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// SaveJob stores a new job owned by recruiterID.
func (r *Repository) SaveJob(rq JobRq, recruiterID string) (*Job, error) {
	externalID, err := ksuid.NewRandom()
	if err != nil {
		return nil, err
	}
	createdAt := time.Now().UTC()
	j := &Job{
		ID:          externalID.String(),
		Title:       rq.Title,
		Description: rq.Description,
		Location:    rq.Location,
		Category:    rq.Category,
		Salary:      rq.Salary,
		Slug:        slug.Make(fmt.Sprintf("%s %s %d", rq.Title, rq.Location, createdAt.Unix())),
		RecruiterID: recruiterID,
		CreatedAt:   createdAt,
	}
	_, err = r.db.Exec(
		`INSERT INTO job (id, title, description, location, category, salary, slug, recruiter_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		j.ID,
		j.Title,
		j.Description,
		j.Location,
		j.Category,
		j.Salary,
		j.Slug,
		j.RecruiterID,
		j.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to insert job")
	}
	return j, nil
}

func (r *Repository) JobByID(id string) (*Job, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+jobFrom+` WHERE j.id = $1`, id)
	return scanJob(row)
}

// JobsByQuery returns the jobs whose category and location contain the given
// filters, case insensitive, newest first. Empty filters match everything.
func (r *Repository) JobsByQuery(category, location string) ([]*Job, error) {
	var (
		where []string
		args  []interface{}
	)
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, "%"+database.EscapeLike(category)+"%")
		where = append(where, fmt.Sprintf("j.category ILIKE $%d", len(args)))
	}
	if location = strings.TrimSpace(location); location != "" {
		args = append(args, "%"+database.EscapeLike(location)+"%")
		where = append(where, fmt.Sprintf("j.location ILIKE $%d", len(args)))
	}
	query := `SELECT ` + jobColumns + jobFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY j.created_at DESC`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *Repository) JobsForRecruiter(recruiterID string) ([]*Job, error) {
	rows, err := r.db.Query(`SELECT `+jobColumns+jobFrom+` WHERE j.recruiter_id = $1 ORDER BY j.created_at DESC`, recruiterID)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *Repository) LatestJobs(limit int) ([]*Job, error) {
	rows, err := r.db.Query(`SELECT `+jobColumns+jobFrom+` ORDER BY j.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanJobs(rows)
}

func (r *Repository) UpdateJob(j *Job) error {
	res, err := r.db.Exec(
		`UPDATE job SET title = $1, description = $2, location = $3, category = $4, salary = $5 WHERE id = $6`,
		j.Title,
		j.Description,
		j.Location,
		j.Category,
		j.Salary,
		j.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteJobCascade deletes the job and every application referencing it.
// Applications go first: if the second statement fails the job survives
// without applications, never the other way round.
func (r *Repository) DeleteJobCascade(jobID string) error {
	if _, err := r.db.Exec(
		`DELETE FROM application WHERE job_id = $1`,
		jobID,
	); err != nil {
		return err
	}
	res, err := r.db.Exec(
		`DELETE FROM job WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
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

func scanJob(row scanner) (*Job, error) {
	j := &Job{}
	err := row.Scan(
		&j.ID,
		&j.Title,
		&j.Description,
		&j.Location,
		&j.Category,
		&j.Salary,
		&j.Slug,
		&j.RecruiterID,
		&j.CreatedAt,
		&j.Recruiter.Name,
		&j.Recruiter.ProfilePic,
	)
	if err != nil {
		return nil, err
	}
	j.Recruiter.ID = j.RecruiterID
	j.humanize()
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	defer rows.Close()
	jobs := []*Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return jobs, err
	}
	return jobs, nil
}

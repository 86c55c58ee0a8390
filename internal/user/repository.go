package user

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

const userColumns = `id, name, email, password_hash, role, profile_pic_url, profile_pic_public_id, resume_url, resume_public_id, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// CreateUser stores a new user, assigning its id and timestamps.
func (r *Repository) CreateUser(u User) (User, error) {
	userID, err := ksuid.NewRandom()
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	u.ID = userID.String()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err = r.db.Exec(
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.ProfilePicURL,
		u.ProfilePicPublicID,
		u.ResumeURL,
		u.ResumePublicID,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return User{}, errors.Wrap(err, "unable to insert user")
	}
	return u, nil
}

func (r *Repository) GetUserByID(id string) (User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(email string) (User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (r *Repository) UpdateInfo(id, name, email string) error {
	_, err := r.db.Exec(
		`UPDATE users SET name = $1, email = $2, updated_at = $3 WHERE id = $4`,
		name,
		strings.ToLower(email),
		time.Now().UTC(),
		id,
	)
	return err
}

func (r *Repository) UpdateProfilePic(id, url, publicID string) error {
	_, err := r.db.Exec(
		`UPDATE users SET profile_pic_url = $1, profile_pic_public_id = $2, updated_at = $3 WHERE id = $4`,
		url,
		publicID,
		time.Now().UTC(),
		id,
	)
	return err
}

func (r *Repository) UpdateResume(id, url, publicID string) error {
	_, err := r.db.Exec(
		`UPDATE users SET resume_url = $1, resume_public_id = $2, updated_at = $3 WHERE id = $4`,
		url,
		publicID,
		time.Now().UTC(),
		id,
	)
	return err
}

func (r *Repository) UsersByRole(role string) ([]User, error) {
	rows, err := r.db.Query(`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (r *Repository) LatestUsers(limit int) ([]User, error) {
	rows, err := r.db.Query(`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// DeleteUserCascade removes the user together with the applications it
// submitted or received and the jobs it owns. Children go first so that a
// failure half way never leaves rows pointing to a missing user.
func (r *Repository) DeleteUserCascade(id string) error {
	if _, err := r.db.Exec(
		`DELETE FROM application WHERE applicant_id = $1 OR recruiter_id = $1`,
		id,
	); err != nil {
		return err
	}
	if _, err := r.db.Exec(
		`DELETE FROM job WHERE recruiter_id = $1`,
		id,
	); err != nil {
		return err
	}
	res, err := r.db.Exec(
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
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

func scanUser(row scanner) (User, error) {
	u := User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ProfilePicURL,
		&u.ProfilePicPublicID,
		&u.ResumeURL,
		&u.ResumePublicID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return users, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return users, err
	}
	return users, nil
}

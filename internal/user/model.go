package user

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	RoleJobseeker = "jobseeker"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               string
	ProfilePicURL      string
	ProfilePicPublicID string
	ResumeURL          string
	ResumePublicID     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasResume reports whether the user has an uploaded resume on file.
func (u User) HasResume() bool {
	return u.ResumeURL != ""
}

// Profile is the user projection returned to clients. It never carries the
// password hash or the media deletion handles.
type Profile struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	ProfilePic         string    `json:"profilePic"`
	ResumeURL          string    `json:"resumeUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedAtHumanised string    `json:"createdAtHumanised,omitempty"`
}

// Summary is the recruiter info attached to jobs.
type Summary struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

// Profile strips credentials and media handles from u.
func (u User) Profile() Profile {
	return Profile{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		ProfilePic:         u.ProfilePicURL,
		ResumeURL:          u.ResumeURL,
		CreatedAt:          u.CreatedAt,
		CreatedAtHumanised: humanize.Time(u.CreatedAt),
	}
}

func Profiles(users []User) []Profile {
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

// IsSelfServiceRole reports whether role can be picked at registration.
func IsSelfServiceRole(role string) bool {
	return role == RoleJobseeker || role == RoleRecruiter
}

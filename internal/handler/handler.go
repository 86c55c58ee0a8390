package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/talentboard/job-portal/internal/application"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/media"
	"github.com/talentboard/job-portal/internal/middleware"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"
)

const (
	maxJSONBodyBytes  = int64(1 << 20)
	multipartOverhead = int64(1 << 20)
)

var validate = validator.New()

type userStore interface {
	CreateUser(u user.User) (user.User, error)
	GetUserByID(id string) (user.User, error)
	GetUserByEmail(email string) (user.User, error)
	UpdateInfo(id, name, email string) error
	UpdateProfilePic(id, url, publicID string) error
	UpdateResume(id, url, publicID string) error
	UsersByRole(role string) ([]user.User, error)
	LatestUsers(limit int) ([]user.User, error)
	DeleteUserCascade(id string) error
}

type jobStore interface {
	SaveJob(rq job.JobRq, recruiterID string) (*job.Job, error)
	JobByID(id string) (*job.Job, error)
	JobsByQuery(category, location string) ([]*job.Job, error)
	JobsForRecruiter(recruiterID string) ([]*job.Job, error)
	LatestJobs(limit int) ([]*job.Job, error)
	UpdateJob(j *job.Job) error
	DeleteJobCascade(jobID string) error
}

type applicationStore interface {
	HasApplied(jobID, applicantID string) (bool, error)
	SaveApplication(jobID, applicantID, recruiterID string) (*application.Application, error)
	ApplicationByID(id string) (*application.Application, error)
	ApplicationsForApplicant(applicantID string) ([]*application.Application, error)
	ApplicationsForRecruiter(recruiterID string) ([]*application.Application, error)
	UpdateStatus(id, status string) error
	DeleteApplication(id string) error
}

type mediaRelay interface {
	Upload(ctx context.Context, kind media.Kind, filename string, data []byte) (media.Asset, error)
	Delete(ctx context.Context, kind media.Kind, publicID string) error
	MaxSize() int64
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the API handlers read from or write to.
type Deps struct {
	Users        userStore
	Jobs         jobStore
	Applications applicationStore
	Media        mediaRelay
	Auth         authoriser.Authoriser
	DB           pinger
}

func isNotFound(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// subject returns the caller set by middleware.Authenticated.
func subject(r *http.Request) authoriser.Subject {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return authoriser.Subject{}
	}
	return claims.Subject()
}

// authorize runs the access policy and writes a 403 on denial.
func authorize(svr server.Server, w http.ResponseWriter, s authoriser.Subject, action authoriser.Action, res authoriser.Resource) bool {
	err := authoriser.Authorize(s, action, res)
	if err == nil {
		return true
	}
	svr.Message(w, http.StatusForbidden, err.Error())
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// validationMessage turns validator errors into a short client message.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "invalid or missing fields: " + strings.Join(fields, ", ")
}

type upload struct {
	filename string
	data     []byte
}

// readUpload returns the file posted under field, or nil when the request
// carries none.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxSize int64) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, media.ErrTooLarge
		}
		return nil, errors.Wrap(err, "unable to parse multipart form")
	}
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s file", field)
	}
	defer f.Close()
	if header.Size > maxSize {
		return nil, media.ErrTooLarge
	}
	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s file content", field)
	}
	return &upload{filename: header.Filename, data: data}, nil
}

// mediaError answers a failed upload with the matching status.
func mediaError(svr server.Server, w http.ResponseWriter, err error) {
	switch errors.Cause(err) {
	case media.ErrUnsupportedMedia:
		svr.Message(w, http.StatusUnsupportedMediaType, "unsupported file type")
	case media.ErrTooLarge:
		svr.Message(w, http.StatusRequestEntityTooLarge, "file is too large")
	case media.ErrEmpty:
		svr.Message(w, http.StatusBadRequest, "file is empty")
	default:
		svr.Log(err, "unable to upload media")
		svr.Message(w, http.StatusInternalServerError, "unable to upload file")
	}
}

// dropMedia deletes a replaced asset. Failures are logged only.
func dropMedia(svr server.Server, relay mediaRelay, kind media.Kind, publicID string) {
	if publicID == "" {
		return
	}
	if err := relay.Delete(context.Background(), kind, publicID); err != nil {
		svr.Log(err, "unable to delete previous media asset")
	}
}

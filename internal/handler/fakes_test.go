package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/talentboard/job-portal/internal/application"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/media"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// memStore keeps users, jobs and applications in memory with the same
// contracts as the Postgres repositories.
type memStore struct {
	mu           sync.Mutex
	seq          int
	users        map[string]user.User
	jobs         map[string]*job.Job
	applications map[string]*application.Application
	// raceApply makes HasApplied miss existing rows, as a concurrent
	// request would.
	raceApply bool
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]user.User{},
		jobs:         map[string]*job.Job{},
		applications: map[string]*application.Application{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
}

type userRepo struct{ *memStore }

func (m userRepo) CreateUser(u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == strings.ToLower(u.Email) {
			return user.User{}, &pq.Error{Code: "23505"}
		}
	}
	u.ID = m.nextID("u")
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u, nil
}

func (m userRepo) GetUserByID(id string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m userRepo) GetUserByEmail(email string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return user.User{}, sql.ErrNoRows
}

func (m userRepo) update(id string, f func(u *user.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	f(&u)
	m.users[id] = u
	return nil
}

func (m userRepo) UpdateInfo(id, name, email string) error {
	return m.update(id, func(u *user.User) { u.Name, u.Email = name, strings.ToLower(email) })
}

func (m userRepo) UpdateProfilePic(id, url, publicID string) error {
	return m.update(id, func(u *user.User) { u.ProfilePicURL, u.ProfilePicPublicID = url, publicID })
}

func (m userRepo) UpdateResume(id, url, publicID string) error {
	return m.update(id, func(u *user.User) { u.ResumeURL, u.ResumePublicID = url, publicID })
}

func (m userRepo) UsersByRole(role string) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []user.User{}
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m userRepo) LatestUsers(limit int) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []user.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m userRepo) DeleteUserCascade(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aid, a := range m.applications {
		if a.ApplicantID == id || a.RecruiterID == id {
			delete(m.applications, aid)
		}
	}
	for jid, j := range m.jobs {
		if j.RecruiterID == id {
			delete(m.jobs, jid)
		}
	}
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type jobRepo struct{ *memStore }

func (m jobRepo) withRecruiter(j job.Job) *job.Job {
	if u, ok := m.users[j.RecruiterID]; ok {
		j.Recruiter = user.Summary{ID: u.ID, Name: u.Name, ProfilePic: u.ProfilePicURL}
	}
	return &j
}

func (m jobRepo) SaveJob(rq job.JobRq, recruiterID string) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := &job.Job{
		ID:          m.nextID("j"),
		Title:       rq.Title,
		Description: rq.Description,
		Location:    rq.Location,
		Category:    rq.Category,
		Salary:      rq.Salary,
		RecruiterID: recruiterID,
	}
	j.CreatedAt = m.now()
	m.jobs[j.ID] = j
	return m.withRecruiter(*j), nil
}

func (m jobRepo) JobByID(id string) (*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.withRecruiter(*j), nil
}

func (m jobRepo) filter(keep func(j *job.Job) bool) []*job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*job.Job{}
	for _, j := range m.jobs {
		if keep(j) {
			out = append(out, m.withRecruiter(*j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (m jobRepo) JobsByQuery(category, location string) ([]*job.Job, error) {
	category, location = strings.ToLower(strings.TrimSpace(category)), strings.ToLower(strings.TrimSpace(location))
	return m.filter(func(j *job.Job) bool {
		return strings.Contains(strings.ToLower(j.Category), category) && strings.Contains(strings.ToLower(j.Location), location)
	}), nil
}

func (m jobRepo) JobsForRecruiter(recruiterID string) ([]*job.Job, error) {
	return m.filter(func(j *job.Job) bool { return j.RecruiterID == recruiterID }), nil
}

func (m jobRepo) LatestJobs(limit int) ([]*job.Job, error) {
	out := m.filter(func(j *job.Job) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m jobRepo) UpdateJob(j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.jobs[j.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Title, stored.Description, stored.Location, stored.Category, stored.Salary = j.Title, j.Description, j.Location, j.Category, j.Salary
	return nil
}

func (m jobRepo) DeleteJobCascade(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.applications {
		if a.JobID == jobID {
			delete(m.applications, id)
		}
	}
	if _, ok := m.jobs[jobID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.jobs, jobID)
	return nil
}

type applicationRepo struct{ *memStore }

func (m applicationRepo) HasApplied(jobID, applicantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceApply {
		return false, nil
	}
	for _, a := range m.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (m applicationRepo) SaveApplication(jobID, applicantID, recruiterID string) (*application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return nil, application.ErrAlreadyApplied
		}
	}
	a := &application.Application{
		ID:          m.nextID("a"),
		JobID:       jobID,
		ApplicantID: applicantID,
		RecruiterID: recruiterID,
		Status:      application.StatusPending,
	}
	a.CreatedAt = m.now()
	m.applications[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m applicationRepo) ApplicationByID(id string) (*application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m applicationRepo) filter(keep func(a *application.Application) bool) []*application.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*application.Application{}
	for _, a := range m.applications {
		if keep(a) {
			cp := *a
			if j, ok := m.jobs[a.JobID]; ok {
				cp.Job = application.JobSummary{Title: j.Title, Category: j.Category, Location: j.Location}
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (m applicationRepo) ApplicationsForApplicant(applicantID string) ([]*application.Application, error) {
	return m.filter(func(a *application.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (m applicationRepo) ApplicationsForRecruiter(recruiterID string) ([]*application.Application, error) {
	return m.filter(func(a *application.Application) bool { return a.RecruiterID == recruiterID }), nil
}

func (m applicationRepo) UpdateStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	return nil
}

func (m applicationRepo) DeleteApplication(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.applications, id)
	return nil
}

func (m *memStore) countApplications() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applications)
}

type fakeHost struct {
	mu         sync.Mutex
	seq        int
	uploads    []string
	destroyed  []string
	destroyErr error
}

func (f *fakeHost) Upload(ctx context.Context, file io.Reader, folder, resourceType string) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := ioutil.ReadAll(file); err != nil {
		return media.Asset{}, err
	}
	f.seq++
	id := fmt.Sprintf("%s/asset%d", folder, f.seq)
	f.uploads = append(f.uploads, id)
	return media.Asset{URL: "https://media.example.com/" + id, PublicID: id}, nil
}

func (f *fakeHost) Destroy(ctx context.Context, publicID, resourceType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return f.destroyErr
}

type fakeDB struct{ err error }

func (f fakeDB) PingContext(ctx context.Context) error { return f.err }

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *memStore
	host    *fakeHost
	auth    authoriser.Authoriser
}

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-pw"
)

const testSiteURL = "https://jobs.example.com"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		Env:                  "test",
		JwtSigningKey:        []byte("test-key"),
		TokenTTL:             time.Hour,
		AdminTokenTTL:        time.Hour,
		AdminEmail:           testAdminEmail,
		AdminPassword:        testAdminPassword,
		DefaultProfilePicURL: "https://media.example.com/default.png",
		MaxUploadSize:        1 << 20,
		SiteURL:              testSiteURL,
	}
	auth := authoriser.NewAuthoriser(cfg)
	auth.PasswordCost = bcrypt.MinCost

	store := newMemStore()
	host := &fakeHost{}
	svr := server.NewServer(cfg, nil, mux.NewRouter())
	svr.Logger = zerolog.Nop()
	RegisterRoutes(svr, Deps{
		Users:        userRepo{store},
		Jobs:         jobRepo{store},
		Applications: applicationRepo{store},
		Media:        media.NewRelay(host, cfg.MaxUploadSize),
		Auth:         auth,
		DB:           fakeDB{},
	})
	return &testEnv{t: t, handler: svr.Handler(), store: store, host: host, auth: auth}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(method, path, token, field, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(e.t, err)
		_, err = fw.Write(data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type authBody struct {
	Token string       `json:"token"`
	User  user.Profile `json:"user"`
}

// register creates an account through the API and returns its token and id.
func (e *testEnv) register(name, email, password, role string) (string, string) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var body authBody
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(e.t, body.Token)
	return body.Token, body.User.ID
}

func (e *testEnv) adminToken() string {
	e.t.Helper()
	tk, err := e.auth.IssueAdminToken()
	require.NoError(e.t, err)
	return tk
}

func (e *testEnv) createJob(token string, rq job.JobRq) job.Job {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/jobs", token, rq)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var j job.Job
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &j))
	return j
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

var pdfResume = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client calls the job portal API on behalf of the Session it carries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	Session    *Session
}

// APIError is a non 2xx answer of the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type User struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ProfilePic string `json:"profilePic"`
	ResumeURL  string `json:"resumeUrl"`
}

type Recruiter struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	ProfilePic string `json:"profilePic"`
}

type Job struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Salary      int64     `json:"salary"`
	RecruiterID string    `json:"recruiterId"`
	Recruiter   Recruiter `json:"recruiter"`
	CreatedAt   time.Time `json:"date"`
	TimeAgo     string    `json:"timeAgo"`
}

type JobInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Category    string `json:"category,omitempty"`
	Salary      int64  `json:"salary,omitempty"`
}

type Application struct {
	ID          string    `json:"_id"`
	JobID       string    `json:"jobId"`
	ApplicantID string    `json:"applicantId"`
	RecruiterID string    `json:"recruiterId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"applicationDate"`
	Job         struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Location    string `json:"location"`
		CompanyName string `json:"companyName"`
	} `json:"job"`
}

func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		Session:    session,
	}
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates as role and populates the session.
func (c *Client) Login(ctx context.Context, email, password, role string) (User, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	}, &res)
	if err != nil {
		return User{}, err
	}
	if err := c.Session.Set(res.Token); err != nil {
		return User{}, errors.Wrap(err, "unable to read session token")
	}
	return res.User, nil
}

// Register creates an account without a profile picture and populates the
// session.
func (c *Client) Register(ctx context.Context, name, email, password, role string) (User, error) {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role,
	}, &res)
	if err != nil {
		return User{}, err
	}
	if err := c.Session.Set(res.Token); err != nil {
		return User{}, errors.Wrap(err, "unable to read session token")
	}
	return res.User, nil
}

func (c *Client) AdminLogin(ctx context.Context, email, password string) error {
	var res authResponse
	err := c.do(ctx, http.MethodPost, "/admin/admin/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return err
	}
	return c.Session.Set(res.Token)
}

// Logout clears the session even when the API call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.Session.Clear()
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var res authResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &res)
	return res.User, err
}

func (c *Client) Jobs(ctx context.Context, category, location string) ([]Job, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if location != "" {
		q.Set("location", location)
	}
	path := "/jobs/all"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	jobs := []Job{}
	err := c.do(ctx, http.MethodGet, path, nil, &jobs)
	return jobs, err
}

func (c *Client) MyJobs(ctx context.Context) ([]Job, error) {
	jobs := []Job{}
	err := c.do(ctx, http.MethodGet, "/jobs/my-jobs", nil, &jobs)
	return jobs, err
}

func (c *Client) CreateJob(ctx context.Context, in JobInput) (Job, error) {
	var j Job
	err := c.do(ctx, http.MethodPost, "/jobs", in, &j)
	return j, err
}

func (c *Client) UpdateJob(ctx context.Context, id string, in JobInput) (Job, error) {
	var j Job
	err := c.do(ctx, http.MethodPut, "/jobs/edit/"+url.PathEscape(id), in, &j)
	return j, err
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/jobs/delete/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Apply(ctx context.Context, jobID string) (Application, error) {
	var res struct {
		Application Application `json:"application"`
	}
	err := c.do(ctx, http.MethodPost, "/application/apply/"+url.PathEscape(jobID), nil, &res)
	return res.Application, err
}

func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	var res struct {
		Applications []Application `json:"applications"`
	}
	err := c.do(ctx, http.MethodGet, "/application/my-applications", nil, &res)
	return res.Applications, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "unable to encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "unable to build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tk := c.Session.Token(); tk != "" {
		req.Header.Set("Authorization", "Bearer "+tk)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		c.Session.Clear()
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(res.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "unable to decode response")
	}
	return nil
}

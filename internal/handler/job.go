package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/server"
)

// ListJobsHandler returns every job matching the optional category and
// location filters, newest first.
func ListJobsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		jobs, err := d.Jobs.JobsByQuery(q.Get("category"), q.Get("location"))
		if err != nil {
			svr.Log(err, "unable to retrieve jobs by query")
			svr.Message(w, http.StatusInternalServerError, "server error while fetching jobs")
			return
		}
		svr.JSON(w, http.StatusOK, jobs)
	}
}

func MyJobsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if !authorize(svr, w, s, authoriser.ActionListOwnJobs, authoriser.Resource{}) {
			return
		}
		jobs, err := d.Jobs.JobsForRecruiter(s.ID)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for recruiter")
			svr.Message(w, http.StatusInternalServerError, "failed to fetch your jobs")
			return
		}
		svr.JSON(w, http.StatusOK, jobs)
	}
}

func CreateJobHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if !authorize(svr, w, s, authoriser.ActionCreateJob, authoriser.Resource{}) {
			return
		}
		rq := &job.JobRq{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rq.Sanitize()
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		recruiter, ok := currentUser(svr, w, d, s)
		if !ok {
			return
		}
		saved, err := d.Jobs.SaveJob(*rq, recruiter.ID)
		if err != nil {
			svr.Log(err, "unable to save job")
			svr.Message(w, http.StatusInternalServerError, "failed to create job")
			return
		}
		j, err := d.Jobs.JobByID(saved.ID)
		if err != nil {
			svr.Log(err, "unable to reload created job")
			j = saved
		}
		svr.JSON(w, http.StatusCreated, j)
	}
}

// loadJob fetches the job named in the route, answering 404 or 500 itself.
func loadJob(svr server.Server, w http.ResponseWriter, d Deps, id string) (*job.Job, bool) {
	j, err := d.Jobs.JobByID(id)
	if isNotFound(err) {
		svr.Message(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		svr.Log(err, "unable to retrieve job by id")
		svr.Message(w, http.StatusInternalServerError, "server error while fetching job")
		return nil, false
	}
	return j, true
}

func GetJobHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := loadJob(svr, w, d, mux.Vars(r)["jobId"])
		if !ok {
			return
		}
		svr.JSON(w, http.StatusOK, j)
	}
}

// UpdateJobHandler applies a partial update. Ownership is checked against
// the job as currently stored.
func UpdateJobHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		j, ok := loadJob(svr, w, d, mux.Vars(r)["jobId"])
		if !ok {
			return
		}
		if !authorize(svr, w, s, authoriser.ActionUpdateJob, authoriser.Resource{Kind: "job", OwnerID: j.RecruiterID}) {
			return
		}
		rq := &job.JobRqUpdate{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		rq.Apply(j)
		if err := validate.Struct(job.JobRq{
			Title:       j.Title,
			Description: j.Description,
			Location:    j.Location,
			Category:    j.Category,
			Salary:      j.Salary,
		}); err != nil {
			svr.Message(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		err := d.Jobs.UpdateJob(j)
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to update job")
			svr.Message(w, http.StatusInternalServerError, "failed to update job")
			return
		}
		svr.JSON(w, http.StatusOK, j)
	}
}

// DeleteJobHandler removes the job and every application to it.
func DeleteJobHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		j, ok := loadJob(svr, w, d, mux.Vars(r)["jobId"])
		if !ok {
			return
		}
		if !authorize(svr, w, s, authoriser.ActionDeleteJob, authoriser.Resource{Kind: "job", OwnerID: j.RecruiterID}) {
			return
		}
		if !deleteJob(svr, w, d, j.ID) {
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "job and related applications deleted"})
	}
}

func deleteJob(svr server.Server, w http.ResponseWriter, d Deps, id string) bool {
	err := d.Jobs.DeleteJobCascade(id)
	if isNotFound(err) {
		svr.Message(w, http.StatusNotFound, "job not found")
		return false
	}
	if err != nil {
		svr.Log(err, "unable to delete job")
		svr.Message(w, http.StatusInternalServerError, "failed to delete job")
		return false
	}
	return true
}

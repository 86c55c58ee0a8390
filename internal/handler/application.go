package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/talentboard/job-portal/internal/application"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/server"
)

// ApplyHandler submits an application of the caller to a job. Checks run in
// a fixed order: role, applicant record, resume, job, duplicate.
func ApplyHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if !authorize(svr, w, s, authoriser.ActionApply, authoriser.Resource{}) {
			return
		}
		applicant, err := d.Users.GetUserByID(s.ID)
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, fmt.Sprintf("user not found with id %s", s.ID))
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve applicant")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		if !applicant.HasResume() {
			svr.Message(w, http.StatusBadRequest, "you must upload a resume to your profile before you can apply")
			return
		}
		j, ok := loadJob(svr, w, d, mux.Vars(r)["jobId"])
		if !ok {
			return
		}
		applied, err := d.Applications.HasApplied(j.ID, applicant.ID)
		if err != nil {
			svr.Log(err, "unable to check existing application")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		if applied {
			svr.Message(w, http.StatusConflict, "you have already applied for this job")
			return
		}
		a, err := d.Applications.SaveApplication(j.ID, applicant.ID, j.RecruiterID)
		if errors.Cause(err) == application.ErrAlreadyApplied {
			svr.Message(w, http.StatusConflict, "you have already applied for this job")
			return
		}
		if err != nil {
			svr.Log(err, "unable to save application")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusCreated, map[string]interface{}{
			"success":     true,
			"message":     "application submitted successfully",
			"application": a,
		})
	}
}

// JobDetailsHandler returns the job shown on the application page.
func JobDetailsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := loadJob(svr, w, d, mux.Vars(r)["jobId"])
		if !ok {
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": j})
	}
}

func MyApplicationsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if !authorize(svr, w, s, authoriser.ActionReadOwnApplications, authoriser.Resource{}) {
			return
		}
		applications, err := d.Applications.ApplicationsForApplicant(s.ID)
		if err != nil {
			svr.Log(err, "unable to retrieve applications for applicant")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applications": applications})
	}
}

// ReceivedApplicationsHandler lists the applications to the caller's jobs.
func ReceivedApplicationsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if !authorize(svr, w, s, authoriser.ActionReadReceivedApplications, authoriser.Resource{}) {
			return
		}
		applications, err := d.Applications.ApplicationsForRecruiter(s.ID)
		if err != nil {
			svr.Log(err, "unable to retrieve applications for recruiter")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applications": applications})
	}
}

func UpdateApplicationStatusHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		a, err := d.Applications.ApplicationByID(mux.Vars(r)["applicationId"])
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, "application not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve application by id")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		if !authorize(svr, w, s, authoriser.ActionUpdateApplicationStatus, authoriser.Resource{Kind: "application", OwnerID: a.RecruiterID}) {
			return
		}
		rq := &application.StatusRq{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "status must be one of pending, reviewed, rejected, hired")
			return
		}
		if err := d.Applications.UpdateStatus(a.ID, rq.Status); err != nil {
			if isNotFound(err) {
				svr.Message(w, http.StatusNotFound, "application not found")
				return
			}
			svr.Log(err, "unable to update application status")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		a.Status = rq.Status
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "application": a})
	}
}

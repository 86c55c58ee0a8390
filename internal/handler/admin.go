package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/job"
	"github.com/talentboard/job-portal/internal/media"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"
)

const latestUsersLimit = 10

// moderate guards every admin panel route.
func moderate(svr server.Server, w http.ResponseWriter, r *http.Request) bool {
	return authorize(svr, w, subject(r), authoriser.ActionModerate, authoriser.Resource{})
}

func AdminUsersByRoleHandler(svr server.Server, d Deps, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		users, err := d.Users.UsersByRole(role)
		if err != nil {
			svr.Log(err, "unable to retrieve users by role")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": user.Profiles(users)})
	}
}

func AdminLatestUsersHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		users, err := d.Users.LatestUsers(latestUsersLimit)
		if err != nil {
			svr.Log(err, "unable to retrieve latest users")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": user.Profiles(users)})
	}
}

// AdminDeleteUserHandler removes a user with their jobs and applications,
// then drops their media assets.
func AdminDeleteUserHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		u, err := d.Users.GetUserByID(mux.Vars(r)["userId"])
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve user by id")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		err = d.Users.DeleteUserCascade(u.ID)
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to delete user")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		dropMedia(svr, d.Media, media.KindProfilePicture, u.ProfilePicPublicID)
		dropMedia(svr, d.Media, media.KindResume, u.ResumePublicID)
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "user deleted successfully"})
	}
}

func AdminUserApplicationsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		applications, err := d.Applications.ApplicationsForApplicant(mux.Vars(r)["userId"])
		if err != nil {
			svr.Log(err, "unable to retrieve applications for user")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applications": applications})
	}
}

func AdminDeleteApplicationHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		err := d.Applications.DeleteApplication(mux.Vars(r)["applicationId"])
		if isNotFound(err) {
			svr.Message(w, http.StatusNotFound, "application not found")
			return
		}
		if err != nil {
			svr.Log(err, "unable to delete application")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "application deleted successfully"})
	}
}

func AdminRecruiterJobsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		jobs, err := d.Jobs.JobsForRecruiter(mux.Vars(r)["userId"])
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for recruiter")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": jobs})
	}
}

func AdminLatestJobsHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		jobs, err := d.Jobs.LatestJobs(job.LatestJobsLimit)
		if err != nil {
			svr.Log(err, "unable to retrieve latest jobs")
			svr.Message(w, http.StatusInternalServerError, "server error")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": jobs})
	}
}

func AdminDeleteJobHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !moderate(svr, w, r) {
			return
		}
		if !deleteJob(svr, w, d, mux.Vars(r)["jobId"]) {
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "job and related applications deleted"})
	}
}

package handler

import (
	"net/http"

	"github.com/talentboard/job-portal/internal/middleware"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"
)

// RegisterRoutes wires every API endpoint onto the server router. Routes
// wrapped in middleware.Authenticated answer 401 before the handler runs.
func RegisterRoutes(svr server.Server, d Deps) {
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.Authenticated(d.Auth, h)
	}

	svr.RegisterRoute("/healthz", HealthHandler(svr, d), []string{http.MethodGet})

	svr.RegisterRoute("/auth/register", RegisterHandler(svr, d), []string{http.MethodPost})
	svr.RegisterRoute("/auth/login", LoginHandler(svr, d), []string{http.MethodPost})
	svr.RegisterRoute("/auth/logout", LogoutHandler(svr), []string{http.MethodPost})
	svr.RegisterRoute("/auth/me", auth(MeHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/auth/update-info", auth(UpdateInfoHandler(svr, d)), []string{http.MethodPut})
	svr.RegisterRoute("/auth/update-profile", auth(UpdateProfilePicHandler(svr, d)), []string{http.MethodPut})
	svr.RegisterRoute("/auth/upload-resume", auth(UploadResumeHandler(svr, d)), []string{http.MethodPut})

	svr.RegisterRoute("/jobs/all", ListJobsHandler(svr, d), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/rss", ServeRSSFeed(svr, d), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/my-jobs", auth(MyJobsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/jobs", auth(CreateJobHandler(svr, d)), []string{http.MethodPost})
	svr.RegisterRoute("/jobs/edit/{jobId}", auth(GetJobHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/jobs/edit/{jobId}", auth(UpdateJobHandler(svr, d)), []string{http.MethodPut})
	svr.RegisterRoute("/jobs/delete/{jobId}", auth(DeleteJobHandler(svr, d)), []string{http.MethodDelete})

	svr.RegisterRoute("/application/apply/{jobId}", auth(ApplyHandler(svr, d)), []string{http.MethodPost})
	svr.RegisterRoute("/application/my-applications", auth(MyApplicationsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/application/job-details/{jobId}", auth(JobDetailsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/application/received", auth(ReceivedApplicationsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/application/status/{applicationId}", auth(UpdateApplicationStatusHandler(svr, d)), []string{http.MethodPut})

	svr.RegisterRoute("/admin/admin/login", AdminLoginHandler(svr, d), []string{http.MethodPost})
	svr.RegisterRoute("/admin/users/jobseekers", auth(AdminUsersByRoleHandler(svr, d, user.RoleJobseeker)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/users/recruiters", auth(AdminUsersByRoleHandler(svr, d, user.RoleRecruiter)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/users/latest", auth(AdminLatestUsersHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/users/{userId}", auth(AdminDeleteUserHandler(svr, d)), []string{http.MethodDelete})
	svr.RegisterRoute("/admin/applications/user/{userId}", auth(AdminUserApplicationsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/applications/{applicationId}", auth(AdminDeleteApplicationHandler(svr, d)), []string{http.MethodDelete})
	svr.RegisterRoute("/admin/jobs/latest", auth(AdminLatestJobsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/jobs/recruiter/{userId}", auth(AdminRecruiterJobsHandler(svr, d)), []string{http.MethodGet})
	svr.RegisterRoute("/admin/jobs/{jobId}", auth(AdminDeleteJobHandler(svr, d)), []string{http.MethodDelete})
}

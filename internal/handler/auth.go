package handler

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/talentboard/job-portal/internal/authoriser"
	"github.com/talentboard/job-portal/internal/database"
	"github.com/talentboard/job-portal/internal/media"
	"github.com/talentboard/job-portal/internal/server"
	"github.com/talentboard/job-portal/internal/user"
)

type RegisterRq struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required"`
}

type LoginRq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type UpdateInfoRq struct {
	Name  string `json:"name" validate:"omitempty,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

type authResponse struct {
	Status string       `json:"status"`
	Token  string       `json:"token"`
	User   user.Profile `json:"user"`
}

type userResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	User    user.Profile `json:"user"`
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// RegisterHandler creates a jobseeker or recruiter account. The request is
// either multipart, with an optional profilePic file, or plain JSON.
func RegisterHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := &RegisterRq{}
		var pic *upload
		if isJSON(r) {
			if err := decodeJSON(w, r, rq); err != nil {
				svr.Message(w, http.StatusBadRequest, "invalid request body")
				return
			}
		} else {
			var err error
			pic, err = readUpload(w, r, "profilePic", d.Media.MaxSize())
			if err != nil {
				mediaError(svr, w, err)
				return
			}
			rq.Name = r.FormValue("name")
			rq.Email = r.FormValue("email")
			rq.Password = r.FormValue("password")
			rq.Role = r.FormValue("role")
		}
		rq.Name = strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(rq.Name))
		rq.Email = strings.ToLower(strings.TrimSpace(rq.Email))
		rq.Role = strings.ToLower(strings.TrimSpace(rq.Role))
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		if !user.IsSelfServiceRole(rq.Role) {
			svr.Message(w, http.StatusBadRequest, "role must be either jobseeker or recruiter")
			return
		}
		_, err := d.Users.GetUserByEmail(rq.Email)
		if err == nil {
			svr.Message(w, http.StatusConflict, "email already exists")
			return
		}
		if !isNotFound(err) {
			svr.Log(err, "unable to look up user by email")
			svr.Message(w, http.StatusInternalServerError, "server error during registration")
			return
		}
		hash, err := d.Auth.HashPassword(rq.Password)
		if err != nil {
			svr.Log(err, "unable to hash password")
			svr.Message(w, http.StatusInternalServerError, "server error during registration")
			return
		}
		u := user.User{
			Name:          rq.Name,
			Email:         rq.Email,
			PasswordHash:  hash,
			Role:          rq.Role,
			ProfilePicURL: svr.GetConfig().DefaultProfilePicURL,
		}
		if pic != nil {
			asset, err := d.Media.Upload(r.Context(), media.KindProfilePicture, pic.filename, pic.data)
			if err != nil {
				mediaError(svr, w, err)
				return
			}
			u.ProfilePicURL = asset.URL
			u.ProfilePicPublicID = asset.PublicID
		}
		created, err := d.Users.CreateUser(u)
		if err != nil {
			dropMedia(svr, d.Media, media.KindProfilePicture, u.ProfilePicPublicID)
			if database.IsUniqueViolation(err) {
				svr.Message(w, http.StatusConflict, "email already exists")
				return
			}
			svr.Log(err, "unable to create user")
			svr.Message(w, http.StatusInternalServerError, "server error during registration")
			return
		}
		tk, err := d.Auth.IssueToken(created.ID, created.Role)
		if err != nil {
			svr.Log(err, "unable to issue token")
			svr.Message(w, http.StatusInternalServerError, "server error during registration")
			return
		}
		svr.JSON(w, http.StatusCreated, authResponse{Status: "success", Token: tk, User: created.Profile()})
	}
}

// LoginHandler verifies email and password first and only then the claimed
// role, so the role of an account is never revealed to a caller who does
// not know its password.
func LoginHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := &LoginRq{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rq.Role = strings.ToLower(strings.TrimSpace(rq.Role))
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "email, password and role are required")
			return
		}
		u, err := d.Users.GetUserByEmail(strings.TrimSpace(rq.Email))
		if err != nil && !isNotFound(err) {
			svr.Log(err, "unable to look up user by email")
			svr.Message(w, http.StatusInternalServerError, "server error during login")
			return
		}
		if !d.Auth.ComparePassword(u.PasswordHash, rq.Password) {
			svr.Message(w, http.StatusUnauthorized, "incorrect email or password")
			return
		}
		if u.Role != rq.Role {
			svr.Message(w, http.StatusForbidden, fmt.Sprintf("this user is not registered as a %s", rq.Role))
			return
		}
		tk, err := d.Auth.IssueToken(u.ID, u.Role)
		if err != nil {
			svr.Log(err, "unable to issue token")
			svr.Message(w, http.StatusInternalServerError, "server error during login")
			return
		}
		svr.JSON(w, http.StatusOK, authResponse{Status: "success", Token: tk, User: u.Profile()})
	}
}

// LogoutHandler exists for symmetry with the client session lifecycle;
// tokens are stateless and simply dropped by the client.
func LogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svr.JSON(w, http.StatusOK, map[string]string{"status": "success", "message": "logged out"})
	}
}

func adminProfile(svr server.Server) user.Profile {
	return user.Profile{
		ID:         authoriser.AdminSubject,
		Name:       "Admin",
		Email:      svr.GetConfig().AdminEmail,
		Role:       user.RoleAdmin,
		ProfilePic: svr.GetConfig().DefaultProfilePicURL,
	}
}

// currentUser loads the caller's record, answering 404 or 500 itself.
func currentUser(svr server.Server, w http.ResponseWriter, d Deps, s authoriser.Subject) (user.User, bool) {
	u, err := d.Users.GetUserByID(s.ID)
	if isNotFound(err) {
		svr.Message(w, http.StatusNotFound, "user not found")
		return u, false
	}
	if err != nil {
		svr.Log(err, "unable to retrieve user by id")
		svr.Message(w, http.StatusInternalServerError, "server error while fetching profile")
		return u, false
	}
	return u, true
}

func MeHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if s.Role == user.RoleAdmin {
			svr.JSON(w, http.StatusOK, userResponse{Status: "success", User: adminProfile(svr)})
			return
		}
		u, ok := currentUser(svr, w, d, s)
		if !ok {
			return
		}
		svr.JSON(w, http.StatusOK, userResponse{Status: "success", User: u.Profile()})
	}
}

func UpdateInfoHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if s.Role == user.RoleAdmin {
			svr.Message(w, http.StatusForbidden, "the admin profile is managed through configuration")
			return
		}
		rq := &UpdateInfoRq{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rq.Name = strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(rq.Name))
		rq.Email = strings.ToLower(strings.TrimSpace(rq.Email))
		if err := validate.Struct(rq); err != nil {
			svr.Message(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		u, ok := currentUser(svr, w, d, s)
		if !ok {
			return
		}
		if rq.Name != "" {
			u.Name = rq.Name
		}
		if rq.Email != "" && rq.Email != u.Email {
			other, err := d.Users.GetUserByEmail(rq.Email)
			if err == nil && other.ID != u.ID {
				svr.Message(w, http.StatusConflict, "email already exists")
				return
			}
			if err != nil && !isNotFound(err) {
				svr.Log(err, "unable to look up user by email")
				svr.Message(w, http.StatusInternalServerError, "failed to update profile info")
				return
			}
			u.Email = rq.Email
		}
		if err := d.Users.UpdateInfo(u.ID, u.Name, u.Email); err != nil {
			if database.IsUniqueViolation(err) {
				svr.Message(w, http.StatusConflict, "email already exists")
				return
			}
			svr.Log(err, "unable to update user info")
			svr.Message(w, http.StatusInternalServerError, "failed to update profile info")
			return
		}
		svr.JSON(w, http.StatusOK, userResponse{Status: "success", Message: "profile info updated", User: u.Profile()})
	}
}

// UpdateProfilePicHandler replaces the caller's profile picture. The old
// asset is removed from the media host on a best effort basis.
func UpdateProfilePicHandler(svr server.Server, d Deps) http.HandlerFunc {
	return mediaUpdateHandler(svr, d, "profilePic", media.KindProfilePicture, "profile picture updated")
}

// UploadResumeHandler replaces the caller's resume.
func UploadResumeHandler(svr server.Server, d Deps) http.HandlerFunc {
	return mediaUpdateHandler(svr, d, "resume", media.KindResume, "resume uploaded")
}

func mediaUpdateHandler(svr server.Server, d Deps, field string, kind media.Kind, done string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := subject(r)
		if s.Role == user.RoleAdmin {
			svr.Message(w, http.StatusForbidden, "the admin profile is managed through configuration")
			return
		}
		file, err := readUpload(w, r, field, d.Media.MaxSize())
		if err != nil {
			mediaError(svr, w, err)
			return
		}
		if file == nil {
			svr.Message(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		u, ok := currentUser(svr, w, d, s)
		if !ok {
			return
		}
		asset, err := d.Media.Upload(r.Context(), kind, file.filename, file.data)
		if err != nil {
			mediaError(svr, w, err)
			return
		}
		var previous string
		if kind == media.KindResume {
			previous = u.ResumePublicID
			u.ResumeURL, u.ResumePublicID = asset.URL, asset.PublicID
			err = d.Users.UpdateResume(u.ID, asset.URL, asset.PublicID)
		} else {
			previous = u.ProfilePicPublicID
			u.ProfilePicURL, u.ProfilePicPublicID = asset.URL, asset.PublicID
			err = d.Users.UpdateProfilePic(u.ID, asset.URL, asset.PublicID)
		}
		if err != nil {
			svr.Log(err, "unable to save media reference")
			dropMedia(svr, d.Media, kind, asset.PublicID)
			svr.Message(w, http.StatusInternalServerError, "failed to save uploaded file")
			return
		}
		dropMedia(svr, d.Media, kind, previous)
		svr.JSON(w, http.StatusOK, userResponse{Status: "success", Message: done, User: u.Profile()})
	}
}

// AdminLoginHandler checks the credentials of the configured admin identity.
func AdminLoginHandler(svr server.Server, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := &authoriser.AuthRq{}
		if err := decodeJSON(w, r, rq); err != nil {
			svr.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !d.Auth.ValidAdminRequest(rq) {
			svr.Message(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		tk, err := d.Auth.IssueAdminToken()
		if err != nil {
			svr.Log(err, "unable to issue admin token")
			svr.Message(w, http.StatusInternalServerError, "server error during login")
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": tk})
	}
}

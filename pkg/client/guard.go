package client

import "strings"

const (
	LoginRoute      = "/login"
	AdminLoginRoute = "/admin/login"
)

// Guard is the client side route rule: protected pages need a token in the
// session, admin pages need an admin token. It only decides where to send
// the user; every request is still checked by the API.
//
// Guard returns "" when route may be shown, the redirect target otherwise.
func Guard(route string, s *Session) string {
	switch {
	case hasPrefix(route, AdminLoginRoute) || hasPrefix(route, LoginRoute):
		return ""
	case isAdmin(route):
		if s == nil || s.Role() != "admin" {
			return AdminLoginRoute
		}
	case isProtected(route):
		if s == nil || s.Token() == "" {
			return LoginRoute
		}
	}
	return ""
}

var protectedPrefixes = []string{
	"/jobseeker-dashboard",
	"/application",
	"/apply-job",
	"/recruiter-dashboard",
	"/recruiter",
	"/profile",
}

func isAdmin(route string) bool {
	return hasPrefix(route, "/admin")
}

func isProtected(route string) bool {
	for _, p := range protectedPrefixes {
		if hasPrefix(route, p) {
			return true
		}
	}
	return false
}

// hasPrefix matches prefix on whole path segments, ignoring query and
// fragment.
func hasPrefix(route, prefix string) bool {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

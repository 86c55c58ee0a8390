package authoriser

import (
	"fmt"

	"github.com/talentboard/job-portal/internal/user"
)

type Action string

const (
	ActionReadJob                  Action = "job:read"
	ActionListOwnJobs              Action = "job:list-own"
	ActionCreateJob                Action = "job:create"
	ActionUpdateJob                Action = "job:update"
	ActionDeleteJob                Action = "job:delete"
	ActionApply                    Action = "application:create"
	ActionReadOwnApplications      Action = "application:list-own"
	ActionReadReceivedApplications Action = "application:list-received"
	ActionUpdateApplicationStatus  Action = "application:update-status"
	ActionModerate                 Action = "admin:moderate"
)

// Subject is the authenticated caller.
type Subject struct {
	ID   string
	Role string
}

// Resource is the record an action targets. OwnerID is loaded fresh from
// storage by the caller; it is empty for actions without a target.
type Resource struct {
	Kind    string
	OwnerID string
}

// DeniedError is returned by Authorize when the policy rejects a request.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Authorize is the single access policy of the API: every restricted
// handler calls it after authentication and before touching storage.
func Authorize(s Subject, action Action, res Resource) error {
	switch action {
	case ActionReadJob:
		return nil
	case ActionListOwnJobs:
		return requireRole(s, action, user.RoleRecruiter, user.RoleAdmin)
	case ActionCreateJob:
		// jobs reference a users row, the admin has none
		return requireRole(s, action, user.RoleRecruiter)
	case ActionUpdateJob, ActionDeleteJob:
		if err := requireRole(s, action, user.RoleRecruiter, user.RoleAdmin); err != nil {
			return err
		}
		return requireOwner(s, action, res)
	case ActionApply:
		if s.Role != user.RoleJobseeker {
			return deny(action, "only users with the 'jobseeker' role may apply, your role is '%s'", s.Role)
		}
		return nil
	case ActionReadOwnApplications:
		return requireRole(s, action, user.RoleJobseeker, user.RoleAdmin)
	case ActionReadReceivedApplications:
		return requireRole(s, action, user.RoleRecruiter, user.RoleAdmin)
	case ActionUpdateApplicationStatus:
		if err := requireRole(s, action, user.RoleRecruiter, user.RoleAdmin); err != nil {
			return err
		}
		return requireOwner(s, action, res)
	case ActionModerate:
		return requireRole(s, action, user.RoleAdmin)
	}
	return deny(action, "unknown action %s", action)
}

func requireRole(s Subject, action Action, roles ...string) error {
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	if len(roles) == 1 {
		return deny(action, "access denied, only %ss allowed", roles[0])
	}
	return deny(action, "access denied for role '%s'", s.Role)
}

// requireOwner lets admins through and otherwise compares the subject with
// the owner of the resource.
func requireOwner(s Subject, action Action, res Resource) error {
	if s.Role == user.RoleAdmin {
		return nil
	}
	if res.OwnerID == "" || res.OwnerID != s.ID {
		kind := res.Kind
		if kind == "" {
			kind = "resource"
		}
		return deny(action, "not allowed to modify this %s", kind)
	}
	return nil
}

func deny(action Action, format string, args ...interface{}) error {
	return &DeniedError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// Package policy decides whether an actor may perform an action on a resource.
package policy

import (
	"fmt"

	"cadence/internal/models"
)

// Action names a guarded mutation.
type Action string

const (
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionCreate   Action = "create"
	ActionEnroll   Action = "enroll"
	ActionMarkRead Action = "mark_read"
)

// Kind names a guarded resource type.
type Kind string

const (
	KindPost           Kind = "post"
	KindProgressUpdate Kind = "progress_update"
	KindComment        Kind = "comment"
	KindLearningPlan   Kind = "learning_plan"
	KindNotification   Kind = "notification"
	KindUser           Kind = "user"
)

// Actor is the authenticated principal.
type Actor struct {
	ID   uint
	Role models.Role
}

// ActorFor builds an Actor from a loaded user.
func ActorFor(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Resource identifies the target of an action by kind and owner.
// For plans the owner is the creator; for notifications the recipient;
// for users the user itself.
type Resource struct {
	Kind    Kind
	OwnerID uint
}

// Checker evaluates authorization rules.
type Checker interface {
	Check(actor Actor, action Action, resource Resource) error
}

// RuleChecker is the built-in rule set.
type RuleChecker struct{}

// NewChecker returns the default rule set.
func NewChecker() RuleChecker {
	return RuleChecker{}
}

// Check returns nil or a FORBIDDEN AppError.
func (RuleChecker) Check(actor Actor, action Action, resource Resource) error {
	owner := actor.ID != 0 && actor.ID == resource.OwnerID

	var allowed bool
	switch resource.Kind {
	case KindPost:
		allowed = isMutation(action) && (owner || actor.IsAdmin())
	case KindProgressUpdate, KindComment:
		allowed = isMutation(action) && owner
	case KindLearningPlan:
		switch action {
		case ActionCreate:
			allowed = actor.IsAdmin()
		case ActionUpdate, ActionDelete:
			allowed = actor.IsAdmin() && owner
		case ActionEnroll:
			allowed = actor.ID != 0 && !actor.IsAdmin()
		}
	case KindNotification:
		allowed = action == ActionMarkRead && owner
	case KindUser:
		allowed = isMutation(action) && (owner || actor.IsAdmin())
	}

	if allowed {
		return nil
	}
	return models.NewForbiddenError(denial(action, resource.Kind))
}

func isMutation(action Action) bool {
	return action == ActionUpdate || action == ActionDelete
}

func denial(action Action, kind Kind) string {
	switch {
	case kind == KindLearningPlan && action == ActionCreate:
		return "Only admins can create learning plans"
	case kind == KindLearningPlan && action == ActionEnroll:
		return "Admins cannot enroll in learning plans"
	case kind == KindLearningPlan:
		return fmt.Sprintf("Only the admin who created this learning plan can %s it", action)
	default:
		return fmt.Sprintf("You are not allowed to %s this %s", action, humanKind(kind))
	}
}

func humanKind(kind Kind) string {
	switch kind {
	case KindProgressUpdate:
		return "progress update"
	case KindLearningPlan:
		return "learning plan"
	default:
		return string(kind)
	}
}

package policy

import (
	"testing"

	"cadence/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRuleChecker_Check(t *testing.T) {
	user := Actor{ID: 1, Role: models.RoleUser}
	other := Actor{ID: 2, Role: models.RoleUser}
	admin := Actor{ID: 3, Role: models.RoleAdmin}
	otherAdmin := Actor{ID: 4, Role: models.RoleAdmin}

	tests := []struct {
		name     string
		actor    Actor
		action   Action
		resource Resource
		allowed  bool
	}{
		{"post owner updates", user, ActionUpdate, Resource{KindPost, 1}, true},
		{"post owner deletes", user, ActionDelete, Resource{KindPost, 1}, true},
		{"stranger updates post", other, ActionUpdate, Resource{KindPost, 1}, false},
		{"admin deletes any post", admin, ActionDelete, Resource{KindPost, 1}, true},
		{"progress owner updates", user, ActionUpdate, Resource{KindProgressUpdate, 1}, true},
		{"admin cannot edit progress", admin, ActionUpdate, Resource{KindProgressUpdate, 1}, false},
		{"comment owner deletes", other, ActionDelete, Resource{KindComment, 2}, true},
		{"admin cannot delete comment", admin, ActionDelete, Resource{KindComment, 2}, false},
		{"admin creates plan", admin, ActionCreate, Resource{Kind: KindLearningPlan}, true},
		{"user cannot create plan", user, ActionCreate, Resource{Kind: KindLearningPlan}, false},
		{"creator admin updates plan", admin, ActionUpdate, Resource{KindLearningPlan, 3}, true},
		{"non-creator admin updates plan", otherAdmin, ActionUpdate, Resource{KindLearningPlan, 3}, false},
		{"non-creator admin deletes plan", otherAdmin, ActionDelete, Resource{KindLearningPlan, 3}, false},
		{"demoted creator deletes plan", Actor{ID: 3, Role: models.RoleUser}, ActionDelete, Resource{KindLearningPlan, 3}, false},
		{"user enrolls", user, ActionEnroll, Resource{KindLearningPlan, 3}, true},
		{"admin cannot enroll", admin, ActionEnroll, Resource{KindLearningPlan, 4}, false},
		{"anonymous cannot enroll", Actor{}, ActionEnroll, Resource{KindLearningPlan, 3}, false},
		{"recipient marks read", user, ActionMarkRead, Resource{KindNotification, 1}, true},
		{"other marks read", other, ActionMarkRead, Resource{KindNotification, 1}, false},
		{"self updates profile", user, ActionUpdate, Resource{KindUser, 1}, true},
		{"admin deletes user", admin, ActionDelete, Resource{KindUser, 1}, true},
		{"stranger deletes user", other, ActionDelete, Resource{KindUser, 1}, false},
		{"anonymous owner id zero", Actor{}, ActionDelete, Resource{KindComment, 0}, false},
	}

	checker := NewChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Check(tt.actor, tt.action, tt.resource)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeForbidden))
		})
	}
}

func TestDenialMessages(t *testing.T) {
	checker := NewChecker()

	err := checker.Check(Actor{ID: 1}, ActionCreate, Resource{Kind: KindLearningPlan})
	assert.EqualError(t, err, "Only admins can create learning plans")

	err = checker.Check(Actor{ID: 1}, ActionUpdate, Resource{KindProgressUpdate, 2})
	assert.EqualError(t, err, "You are not allowed to update this progress update")
}

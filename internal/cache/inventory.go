package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	PlanKeyPrefix = "plan:%d"
)

const (
	UserTTL = 5 * time.Minute
	PlanTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PlanKey(planID uint) string {
	return fmt.Sprintf(PlanKeyPrefix, planID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePlan(ctx context.Context, planID uint) {
	Invalidate(ctx, PlanKey(planID))
}

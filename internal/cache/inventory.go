package cache

import (
	"context"
	"fmt"
	"time"
)

const UserKeyPrefix = "user:%s"

const UserTTL = 5 * time.Minute

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func (c *Cache) InvalidateUser(ctx context.Context, userID string) {
	c.Invalidate(ctx, UserKey(userID))
}

package ratelimit

import "strconv"

// UserKey builds the limiter key for one user. A zero user or
// non-positive limit yields the empty key, which limiters treat as
// unlimited.
func UserKey(userID uint64, limit int) string {
	if userID == 0 || limit <= 0 {
		return ""
	}
	return "u:" + strconv.FormatUint(userID, 10)
}

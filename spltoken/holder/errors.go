package holder

import "strings"

func isRateLimited(err error) bool {
	return containsAny(err, "rate limit", "rate-limited", "429", "too many requests")
}

func isServerBusy(err error) bool {
	return containsAny(err, "server busy", "try again later", "overloaded", "503")
}

func isRetryable(err error) bool { return isRateLimited(err) || isServerBusy(err) }

func containsAny(err error, subs ...string) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

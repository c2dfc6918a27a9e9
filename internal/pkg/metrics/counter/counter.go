package counter

import (
	"context"
	"strconv"

	"shopward/internal/pkg/cache"
)

const (
	decisionsKey = "authz:counters:decisions"
	loginsKey    = "auth:counters:logins"
)

// AddDecision increments the pending counter for one access decision outcome.
// Outcomes are keyed by the redirect destination or "allow"/"denied".
func AddDecision(outcome string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, decisionsKey, outcome, 1).Err()
}

// AddLogin increments the successful login counter.
func AddLogin() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, loginsKey).Err()
}

// DecisionCounts returns the accumulated decision counters.
func DecisionCounts() (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, decisionsKey).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(raw))
	for outcome, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[outcome] = n
	}
	return out, nil
}

// LoginCount returns the accumulated login counter.
func LoginCount() (int64, error) {
	ctx := context.Background()
	n, err := cache.GetClient().Get(ctx, loginsKey).Int64()
	if err != nil {
		if cache.IsMiss(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Reset drops all counters.
func Reset() error {
	ctx := context.Background()
	return cache.GetClient().Del(ctx, decisionsKey, loginsKey).Err()
}

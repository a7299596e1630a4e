// Package ratelimit implements the RateLimiter: per-(user,project) rolling
// windows for request rate and cost, admission checks in a fixed deny
// order, and cost recording after a pipeline run completes.
package ratelimit

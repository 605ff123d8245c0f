// Package ratelimit enforces per-endpoint request quotas with a token bucket
// that refills continuously at capacity/window tokens per second.
//
// Buckets live in a Store. RedisStore shares them across API instances and
// performs refill-and-consume in a single Lua script, so concurrent requests
// for one key are totally ordered. MemoryStore is for single-instance runs.
package ratelimit

// Package ratelimit tracks failed attempts per identifier and action and
// enforces timed locks once a threshold is crossed. State is persisted so
// limits survive process restarts and apply across instances.
package ratelimit

// Package reset implements the password reset flow: issuing single-use
// expiring tokens, rate limiting how often one account may request them,
// and consuming a token to set a new password. Token issuance is recorded
// separately from the tokens themselves so the rate limit survives token
// cleanup.
package reset

package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the default time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the default time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// License constants
const (
	// KeyGenerationAttempts bounds the uniqueness retry loop for license keys
	KeyGenerationAttempts = 10

	// ExpiryWarningWindowDays is the lookahead window for the expiring-licenses report
	ExpiryWarningWindowDays = 7

	// BcryptCost is the work factor used when hashing admin passwords
	BcryptCost = 10
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

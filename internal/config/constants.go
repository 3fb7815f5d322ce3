package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Draft slots outlive the reservation window by this much so a lapsed
// reservation can still be reclaimed without losing in-progress work.
const DraftTTLSlack = 24 * time.Hour

// Magic-link send limits
const (
	MagicLinkLimitPerEmail = 3
	MagicLinkEmailWindow   = 5 * time.Minute
	MagicLinkLimitPerIP    = 10
	MagicLinkIPWindow      = time.Minute
)

package core

import "time"

// Timeout defaults for title capture
const (
	DefaultTitleTimeout     = 35 * time.Second
	DefaultNetworkIdleDelay = 500 * time.Millisecond
)

// Title worker defaults used by serve
const (
	DefaultTitleWorkers      = 2
	DefaultTitleQueueSize    = 256
	DefaultTitlePollInterval = 30 * time.Second
)

// Browser configuration
const (
	UserAgent = "Mozilla/5.0 (compatible; linkindex/1.0)"
)

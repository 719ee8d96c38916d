package config

import "time"

const (
	// Case id allocation
	CaseIDMinDigits        = 4
	CaseIDMaxDigits        = 8
	CaseIDAttemptsPerWidth = 100

	// Moderator API tokens
	TokenTTL    = 72 * time.Hour
	TokenIssuer = "honestbox-admin"

	// Telegram ban listings are chunked to stay under message limits
	ListBansChunkSize = 20
)

package constants

import "time"

const (
	DefaultLootCooldown = 2 * time.Hour
	DefaultRivalLimit   = 5
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 10 * time.Second
	ClientTimeout   = 10 * time.Second
)

const (
	DBMaxOpenConns    = 16
	DBMaxIdleConns    = 4
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBusyTimeoutMS   = 5000
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	CardServicePath = "/cards.v1.CardService/"
)

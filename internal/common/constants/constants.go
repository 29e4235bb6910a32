package constants

import "time"

const (
	SessionSecretMinLength = 32
	SessionTokenSize       = 32
	DefaultSessionTTL      = 24 * time.Hour
	SessionCookieName      = "sid"
	FlashCookieName        = "flash"
	FlashTTL               = 5 * time.Minute
	SessionKeyPrefix       = "social-hub:session:"
	SessionSweepInterval   = 10 * time.Minute
	SessionStoreTimeout    = 3 * time.Second

	MaxMessageLength      = 4000
	MaxPostLength         = 10000
	DefaultMaxRequestSize = 1 << 20
	DefaultMaxUploadBytes = 20 * 1024 * 1024

	LastSeenQueueSize     = 100
	LastSeenBatchSize     = 100
	LastSeenFlushEvery    = 500 * time.Millisecond
	LastSeenUpdateTimeout = 3 * time.Second
	LastSeenMinInterval   = 1 * time.Minute

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "3000"
	DefaultRequestTimeout = 5 * time.Second
	DefaultUploadTimeout  = 60 * time.Second

	DefaultCircuitBreakerThreshold = 50
	DefaultCircuitBreakerTimeout   = 3 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	RateLimitCleanupInterval           = 5 * time.Minute
	RateLimitLoginRequestsPerSecond    = 0.5
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.2
	RateLimitRegisterBurst             = 3
	RateLimitSendRequestsPerSecond     = 5
	RateLimitSendBurst                 = 20
	RateLimitGeneralRequestsPerSecond  = 20
	RateLimitGeneralBurst              = 50

	WebSocketWriteWait       = 10 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketPingPeriod      = 54 * time.Second
	WebSocketMaxMsgSize      = 512
	WebSocketSendBufSize     = 16
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	ObjectStoreInitTimeout = 5 * time.Second

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"

package cache

import "errors"

var (
	ErrCacheMiss                    = errors.New("cache miss")
	ErrUnavailable                  = errors.New("cache unavailable")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
)

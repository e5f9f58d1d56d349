// Package config provides 12-factor configuration management for the client.
//
// Configuration is loaded from HACKMATE_-prefixed environment variables with
// sensible defaults. An optional YAML file can overlay the environment for
// local development.
//
// Configuration Sections:
//   - API: REST collaborator settings (base URL, bearer token, timeout)
//   - Realtime: websocket endpoint, reconnect backoff, heartbeat timings
//   - Logging: log level and output format
//   - RateLimit: outbound REST rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("connecting to %s\n", cfg.Realtime.Endpoint)
//
// Environment Variables (keys compose as HACKMATE_<SECTION>_<KEY>):
//   - HACKMATE_API_BASE_URL, HACKMATE_API_TOKEN, HACKMATE_API_TIMEOUT
//   - HACKMATE_REALTIME_ENDPOINT, HACKMATE_REALTIME_RECONNECT_DELAY
//   - HACKMATE_REALTIME_HEARTBEAT_INTERVAL, HACKMATE_REALTIME_HEARTBEAT_TIMEOUT
//   - HACKMATE_LOGGING_LEVEL, HACKMATE_LOGGING_DEVELOPMENT
//   - HACKMATE_RATELIMIT_RPS, HACKMATE_RATELIMIT_BURST
package config

// Package config resolves the service settings (HTTP port, optimizer
// parameters, rate limiting, timeouts) from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults. It exposes
// strongly typed settings to the rest of the application.
package config

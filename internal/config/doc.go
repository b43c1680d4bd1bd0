// Package config loads, normalizes, and validates the TOML configuration
// for gazette. Credentials never live in the config file; destinations name
// the environment variables to read them from, and an optional .env file is
// loaded before resolution.
package config

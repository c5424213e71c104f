// Package config loads, normalizes, and validates bookplate configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: store and log locations, the publisher identity used for
// auto-allocation, lock acquisition bounds, and the optional audit log.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

// Package config loads, normalizes, and validates dualsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DUALSUB_USER_AGENT
// environment fallback. Language codes are rewritten to the 3-letter ids the
// subtitle catalog expects, so downstream code never sees "en" or "english".
package config

// Package config loads, normalizes, and validates slidereel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_BUCKET_NAME and POSTMARK_KEY. The Config type centralizes every knob the
// daemon and CLI need, allowing work/output directories, encoder parameters,
// and external service credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package config loads, validates, and defaults the TOML configuration for
// the collector.
//
// Configuration lives at ~/.config/solocollect/config.toml by default, with
// a project-local solocollect.toml fallback. All path fields are expanded
// (~, relative) at load time so downstream code never deals with raw user
// input.
package config

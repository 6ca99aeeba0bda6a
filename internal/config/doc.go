// Package config handles configuration loading for ideahub.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults. Local secrets can be
// supplied through a .env file loaded with LoadDotEnv before Load runs.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  token_secret: "${IDEAHUB_TOKEN_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_ttl: "168h"
//	  sweep_interval: "15m"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/ideahub/ideahub.db"
//
// Authentication:
//
//	auth:
//	  token_secret: "${IDEAHUB_TOKEN_SECRET}"  # min 32 chars, required
//	  pbkdf2_iterations: 100000
//	  session_ttl: "168h"
//	  sweep_interval: "15m"
//
// Idea generation:
//
//	genai:
//	  api_key: "${GEMINI_API_KEY}"
//	  model: "gemini-2.0-flash-exp"
//	  fallback_models:
//	    - "gemini-1.5-flash"
//
// Invitation email:
//
//	smtp:
//	  enabled: false
//	  host: "smtp.example.com"
//	  port: 587
//	  username: "mailer"
//	  password: "${SMTP_PASSWORD}"
//	  from: "ideahub@example.com"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config

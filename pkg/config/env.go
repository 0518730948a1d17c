package config

import "strings"

// Environment names accepted in server.environment
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// NormalizeEnvironment lower-cases and trims env, defaulting to development
func NormalizeEnvironment(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return EnvDevelopment
	}
	return env
}

// IsProductionLike reports whether env requires explicit database, auth
// and broker settings.
func IsProductionLike(env string) bool {
	switch NormalizeEnvironment(env) {
	case EnvStaging, EnvProduction:
		return true
	}
	return false
}

// IsDevelopment reports whether the server runs with development defaults
func (c *ServerConfig) IsDevelopment() bool {
	return NormalizeEnvironment(c.Environment) == EnvDevelopment
}

// IsProductionLike reports whether the server runs in staging or production
func (c *ServerConfig) IsProductionLike() bool {
	return IsProductionLike(c.Environment)
}

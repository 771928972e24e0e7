// Package config provides configuration loading and validation for render
// graph workspaces.
//
// LoadConfig resolves a config.yml and an optional .env file for the named
// application, reads them with Viper and overlays environment variables.
// Every key maps to one underscore-separated variable, so
// VALIDATION_MAX_PASSES overrides validation.max_passes. The loaded config
// has its defaults applied and is validated.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.LoadConfig("rendergraph", &cfg); err != nil {
//		return err
//	}
package config

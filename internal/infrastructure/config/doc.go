// Package config loads and validates Hearth Core configuration.
//
// Configuration comes from three layers, later layers overriding earlier:
//
//  1. Compiled-in defaults
//  2. A YAML file (configs/config.yaml by default)
//  3. HEARTH_* environment variables
//
// Secrets (the JWT signing secret in particular) should be supplied via
// environment variables rather than committed to the YAML file.
package config

// Package config loads YAML configuration for chatcore consumers, with
// ${VAR} environment expansion and duration parsing.
package config

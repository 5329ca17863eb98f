// Package config provides centralized configuration management for qpcrscore.
// It loads configuration from several sources, validates it, and exposes the
// scoring calibration constants as named, overridable values.
//
// # Configuration Sources
//
// Configuration is layered in the following order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML file (qpcrscore.yaml, configs/qpcrscore.yaml or $QPCR_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern QPCR_<SECTION>_<FIELD>:
//
//	QPCR_SCORING_MODEL=discrete
//	QPCR_SCORING_WEIGHTS_SLOPE=4
//	QPCR_INPUT_SHEET="Amplification Data"
//	QPCR_INPUT_SKIP_ROWS=40
//	QPCR_LOGGING_LEVEL=debug
//
// # Validation
//
// Load validates the merged result with go-playground/validator struct tags
// plus a few cross-field rules, so callers never see a half-valid Config.
//
// # Testing
//
// Tests use Default() directly, or LoadFrom with a temp YAML file.
package config

// Package config handles loading and validating Doorsense configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (DOORSENSE_*, PORT)
//   - Validation of required fields
//   - Default value handling
//
// A .env file, if present, is loaded into the environment by the main
// package before Load is called, so it participates as an override layer.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config

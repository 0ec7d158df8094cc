// Package config provides configuration management for netbox-sync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Defaults come from the `default` struct tags of
// each partial configuration.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP intake server settings (port, API key)
//   - Database: inventory database connection details (mysql or sqlite)
//   - Storage: S3/MinIO credentials and bucket for observation batches and reports
//   - Log: Logging level and format
//   - Reconcile: worker count, dry-run and snapshot refresh behaviour
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Host)
package config

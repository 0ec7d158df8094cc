package storage

// Config holds configuration for the S3 compatible store holding observation batches.
type Config struct {
	// Endpoint is host:port of the service. A http:// or https:// prefix is stripped.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL enables TLS.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds observation batches and run reports.
	Bucket string `mapstructure:"bucket" default:"netbox-sync"`
	// Region of the bucket. Empty lets the client discover it.
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing, TLS handshake and response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

package objstore

// Config holds all settings needed to connect to an object storage backend.
type Config struct {
	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `yaml:"endpoint"`

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string `yaml:"access_key"`

	// SecretKey is the secret access key.
	SecretKey string `yaml:"secret_key"`

	// UseSSL controls whether TLS is used for the connection. It also
	// selects the scheme of the public object URLs this layer hands out.
	UseSSL bool `yaml:"use_ssl"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `yaml:"region"`

	// BucketTemplate derives a bucket name from the owning organization.
	// The literal token "{organization_id}" is replaced with the
	// organization's identifier. Example: "depot-{organization_id}".
	BucketTemplate string `yaml:"bucket_template"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Endpoint:       endpoint,
		AccessKey:      accessKey,
		SecretKey:      secretKey,
		UseSSL:         false,
		BucketTemplate: "depot-{organization_id}",
	}
}

// Available reports whether credentials have been configured. Hosts should
// check this before calling into the access layer instead of letting a call
// chain fail deep inside a request.
func (c *Config) Available() bool {
	return c != nil && c.AccessKey != "" && c.SecretKey != ""
}

// EndpointURL returns the scheme-qualified endpoint used to build public
// object URLs of the form {endpoint}/{bucket}/{key}.
func (c *Config) EndpointURL() string {
	if c.UseSSL {
		return "https://" + c.Endpoint
	}
	return "http://" + c.Endpoint
}

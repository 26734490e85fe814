package config

type StorageConfig struct {
	Provider string              `yaml:"provider"` // local, s3, gcs
	Local    *LocalStorageConfig `yaml:"local"`
	S3       *S3StorageConfig    `yaml:"s3"`
	GCS      *GCSStorageConfig   `yaml:"gcs"`
}

type LocalStorageConfig struct {
	BasePath  string `yaml:"base_path"`
	BaseURL   string `yaml:"base_url"`
	URLPrefix string `yaml:"url_prefix"`
}

// S3 credentials come from the default AWS chain (env, shared config, instance role).
type S3StorageConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	CDNDomain string `yaml:"cdn_domain"`
}

type GCSStorageConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	CDNDomain       string `yaml:"cdn_domain"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Provider: getEnv("STORAGE_PROVIDER", "local"),
		Local: &LocalStorageConfig{
			BasePath:  getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			BaseURL:   getEnv("STORAGE_LOCAL_URL", "http://localhost:8080/uploads"),
			URLPrefix: getEnv("STORAGE_LOCAL_ROUTE", "/uploads"),
		},
		S3: &S3StorageConfig{
			Region:    getEnv("AWS_S3_REGION", "ap-south-1"),
			Bucket:    getEnv("AWS_S3_BUCKET", ""),
			CDNDomain: getEnv("AWS_CLOUDFRONT_DOMAIN", ""),
		},
		GCS: &GCSStorageConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			CDNDomain:       getEnv("GCS_CDN_DOMAIN", ""),
		},
	}
}

package config

import "time"

// Config holds runtime settings for the archive worker.
//
// BasePaths are candidate deployment roots tried in order when fetching the
// manifest and batch files; entries may be plain HTTP(S) URLs or local
// directories. S3 settings switch the batch store to an S3/MinIO backend
// when S3Bucket is set.
type Config struct {
	BasePaths    []string
	ManifestName string
	HotIndexName string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	CacheMaxSize  int64
	ChunkSize     int
	HeapThreshold uint64
	DefaultLimit  int

	ColdTimeout  time.Duration
	LightTimeout time.Duration
	ChunkYield   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BasePaths = []string{"./data/cold-storage"}
	c.ManifestName = "storage-index.json"
	c.HotIndexName = "hot-index.json"
	c.S3Region = "us-east-1"
	c.CacheMaxSize = 100 * 1024 * 1024
	c.ChunkSize = 3
	c.HeapThreshold = 200 * 1024 * 1024
	c.DefaultLimit = 50
	c.ColdTimeout = 60 * time.Second
	c.LightTimeout = 10 * time.Second
	c.ChunkYield = 10 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/planquery/appealvault/internal/flagx"
	"github.com/planquery/appealvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify timeouts either as strings like "60s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	BasePaths    []string `json:"base_paths"`
	ManifestName string   `json:"manifest_name"`
	HotIndexName string   `json:"hot_index_name"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	CacheMaxSize  int64  `json:"cache_max_size"`
	ChunkSize     int    `json:"chunk_size"`
	HeapThreshold uint64 `json:"heap_threshold"`
	DefaultLimit  int    `json:"default_limit"`

	ColdTimeout  timex.Duration `json:"cold_timeout"`
	LightTimeout timex.Duration `json:"light_timeout"`
	ChunkYield   timex.Duration `json:"chunk_yield"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. Absent file means nothing to do; read or unmarshal
// errors panic (the caller may recover). Zero values in the file leave the
// existing config untouched so defaults survive a sparse file.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if len(jc.BasePaths) > 0 {
		cfg.BasePaths = jc.BasePaths
	}
	if jc.ManifestName != "" {
		cfg.ManifestName = jc.ManifestName
	}
	if jc.HotIndexName != "" {
		cfg.HotIndexName = jc.HotIndexName
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
	if jc.CacheMaxSize > 0 {
		cfg.CacheMaxSize = jc.CacheMaxSize
	}
	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.HeapThreshold > 0 {
		cfg.HeapThreshold = jc.HeapThreshold
	}
	if jc.DefaultLimit > 0 {
		cfg.DefaultLimit = jc.DefaultLimit
	}
	if jc.ColdTimeout.Duration > 0 {
		cfg.ColdTimeout = time.Duration(jc.ColdTimeout.Duration)
	}
	if jc.LightTimeout.Duration > 0 {
		cfg.LightTimeout = time.Duration(jc.LightTimeout.Duration)
	}
	if jc.ChunkYield.Duration > 0 {
		cfg.ChunkYield = time.Duration(jc.ChunkYield.Duration)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, []string{"./data/cold-storage"}, c.BasePaths)
	assert.Equal(t, "storage-index.json", c.ManifestName)
	assert.Equal(t, "hot-index.json", c.HotIndexName)
	assert.Equal(t, int64(100*1024*1024), c.CacheMaxSize)
	assert.Equal(t, 3, c.ChunkSize)
	assert.Equal(t, uint64(200*1024*1024), c.HeapThreshold)
	assert.Equal(t, 60*time.Second, c.ColdTimeout)
	assert.Equal(t, 10*time.Second, c.LightTimeout)
}

func TestLoadConfig_JsonOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	content := `{
		"base_paths": ["https://archive.example.org/cold"],
		"manifest_name": "index.json",
		"hot_index_name": "recent.json",
		"cache_max_size": 1048576,
		"cold_timeout": "30s"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"worker", "-c", path}

	cfg := LoadConfig()

	assert.Equal(t, []string{"https://archive.example.org/cold"}, cfg.BasePaths)
	assert.Equal(t, "index.json", cfg.ManifestName)
	assert.Equal(t, "recent.json", cfg.HotIndexName)
	assert.Equal(t, int64(1048576), cfg.CacheMaxSize)
	assert.Equal(t, 30*time.Second, cfg.ColdTimeout)
	// untouched by the sparse file
	assert.Equal(t, 3, cfg.ChunkSize)
	assert.Equal(t, 10*time.Second, cfg.LightTimeout)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"manifest_name": "from-json.json"}`), 0o600))

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"worker", "-c", path, "-m", "from-flag.json", "-b", "https://a.example.org, https://b.example.org"}

	cfg := LoadConfig()

	assert.Equal(t, "from-flag.json", cfg.ManifestName)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.BasePaths)
}

// Package config loads runtime configuration for the archive worker.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   comma-separated candidate base paths of the cold archive
//	-m string   manifest file name within each base path
//	-l int      default search result limit
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "60s" or integer nanoseconds:
//
//	{
//	  "base_paths": ["https://archive.example.org/cold", "./data/cold-storage"],
//	  "manifest_name": "storage-index.json",
//	  "s3_endpoint": "http://localhost:9000",
//	  "s3_bucket": "appeal-archive",
//	  "cache_max_size": 104857600,
//	  "cold_timeout": "60s"
//	}
//
// Zero values in the JSON file leave the built-in defaults untouched, so a
// sparse file only overrides what it names.
package config

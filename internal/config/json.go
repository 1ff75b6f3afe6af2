package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mpetrenko/taskflow/internal/flagx"
	"github.com/mpetrenko/taskflow/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify durations either as strings like "300ms"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	Mode                    string         `json:"mode"`
	LocalDatabasePath       string         `json:"local_database_path"`
	LocalLatency            timex.Duration `json:"local_latency"`
	CollisionPolicy         string         `json:"collision_policy"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	AccessToken             string         `json:"access_token"`
	S3AccessKeyID           string         `json:"s3_access_key_id"`
	S3SecretKey             string         `json:"s3_secret_key"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config command-line flags via
// flagx.JsonConfigFlags(); with no path set, nothing is loaded. A file that
// cannot be read or parsed panics, matching the fail-fast startup contract.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.Mode = c.Mode
	config.LocalDatabasePath = c.LocalDatabasePath
	config.LocalLatency = time.Duration(c.LocalLatency.Duration)
	config.CollisionPolicy = c.CollisionPolicy
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionValidityDuration = time.Duration(c.SessionValidityDuration.Duration)
	config.AccessToken = c.AccessToken
	config.S3AccessKeyID = c.S3AccessKeyID
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}

package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lessonvault/internal/flagx"
	"github.com/dmitrijs2005/lessonvault/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations use timex.Duration so
// both "90s" and integer nanoseconds are accepted. Fields left out of the file
// keep their current value.
type JsonConfig struct {
	EndpointAddrHTTP string   `json:"endpoint_addr_http"`
	EndpointAddrGRPC string   `json:"endpoint_addr_grpc"`
	DatabaseDSN      string   `json:"database_dsn"`
	LogLevel         string   `json:"log_level"`
	CORSOrigins      []string `json:"cors_origins"`

	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`

	StorageDriver    string         `json:"storage_driver"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3PublicEndpoint string         `json:"s3_public_endpoint"`
	PresignTTL       timex.Duration `json:"presign_ttl"`
	KeyRoot          string         `json:"key_root"`

	StreamThreshold     int64          `json:"stream_threshold_bytes"`
	MultipartMemory     int64          `json:"multipart_memory_bytes"`
	StreamPartSize      int64          `json:"stream_part_size_bytes"`
	StreamConcurrency   int            `json:"stream_concurrency"`
	MemoryWarningBytes  uint64         `json:"memory_warning_bytes"`
	MemoryCriticalBytes uint64         `json:"memory_critical_bytes"`
	ReclaimCooldown     timex.Duration `json:"reclaim_cooldown"`
	ReclaimDeltaBytes   uint64         `json:"reclaim_delta_bytes"`

	SweepInterval timex.Duration `json:"sweep_interval"`
	SweepGrace    timex.Duration `json:"sweep_grace"`

	RecordCacheSize int            `json:"record_cache_size"`
	RecordCacheTTL  timex.Duration `json:"record_cache_ttl"`
}

// parseJson loads the file named by -c/-config, if any, over config.
// An unreadable file or invalid JSON panics, as for flags.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setStr(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setStr(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.LogLevel, c.LogLevel)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}

	setStr(&config.SecretKey, c.SecretKey)
	setNum(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration.Duration)
	setNum(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration.Duration)

	setStr(&config.StorageDriver, c.StorageDriver)
	setStr(&config.S3AccessKey, c.S3AccessKey)
	setStr(&config.S3SecretKey, c.S3SecretKey)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.S3PublicEndpoint, c.S3PublicEndpoint)
	setNum(&config.PresignTTL, c.PresignTTL.Duration)
	setStr(&config.KeyRoot, c.KeyRoot)

	setNum(&config.StreamThreshold, c.StreamThreshold)
	setNum(&config.MultipartMemory, c.MultipartMemory)
	setNum(&config.StreamPartSize, c.StreamPartSize)
	setNum(&config.StreamConcurrency, c.StreamConcurrency)
	setNum(&config.MemoryWarningBytes, c.MemoryWarningBytes)
	setNum(&config.MemoryCriticalBytes, c.MemoryCriticalBytes)
	setNum(&config.ReclaimCooldown, c.ReclaimCooldown.Duration)
	setNum(&config.ReclaimDeltaBytes, c.ReclaimDeltaBytes)

	setNum(&config.SweepInterval, c.SweepInterval.Duration)
	setNum(&config.SweepGrace, c.SweepGrace.Duration)

	setNum(&config.RecordCacheSize, c.RecordCacheSize)
	setNum(&config.RecordCacheTTL, c.RecordCacheTTL.Duration)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type number interface {
	~int | ~int64 | ~uint64
}

func setNum[T number](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

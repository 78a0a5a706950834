package config

import (
	"strings"

	"github.com/dmitrijs2005/lessonvault/internal/flagx"
)

// parseEnv overlays values from the environment. Storage credentials also
// honour the conventional AWS variable names.
func parseEnv(c *Config) {
	flagx.SetString(&c.EndpointAddrHTTP, "LV_HTTP_ADDR")
	flagx.SetString(&c.EndpointAddrGRPC, "LV_GRPC_ADDR")
	flagx.SetString(&c.DatabaseDSN, "LV_DATABASE_DSN", "DATABASE_URL")
	flagx.SetString(&c.LogLevel, "LV_LOG_LEVEL")
	flagx.SetString(&c.SecretKey, "LV_SECRET_KEY")

	flagx.SetString(&c.StorageDriver, "LV_STORAGE_DRIVER")
	flagx.SetString(&c.S3AccessKey, "LV_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	flagx.SetString(&c.S3SecretKey, "LV_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	flagx.SetString(&c.S3Bucket, "LV_S3_BUCKET", "S3_BUCKET")
	flagx.SetString(&c.S3Region, "LV_S3_REGION", "AWS_REGION")
	flagx.SetString(&c.S3BaseEndpoint, "LV_S3_ENDPOINT")
	flagx.SetString(&c.S3PublicEndpoint, "LV_S3_PUBLIC_ENDPOINT")
	flagx.SetDuration(&c.PresignTTL, "LV_PRESIGN_TTL")
	flagx.SetString(&c.KeyRoot, "LV_KEY_ROOT")

	flagx.SetInt64(&c.StreamThreshold, "LV_STREAM_THRESHOLD")
	flagx.SetDuration(&c.SweepInterval, "LV_SWEEP_INTERVAL")
	flagx.SetDuration(&c.SweepGrace, "LV_SWEEP_GRACE")

	if v, ok := flagx.EnvString("LV_CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

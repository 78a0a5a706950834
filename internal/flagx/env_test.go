package flagx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	t.Cleanup(func() { lookupEnv = orig })
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestEnvString_FirstNonEmptyWins(t *testing.T) {
	withEnv(t, map[string]string{"A": "", "B": "b", "C": "c"})

	v, ok := EnvString("A", "B", "C")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = EnvString("MISSING")
	assert.False(t, ok)
}

func TestSetters(t *testing.T) {
	withEnv(t, map[string]string{
		"SIZE":     "1024",
		"BAD_SIZE": "ten",
		"TTL":      "90s",
		"BAD_TTL":  "soon",
		"NAME":     "bucket",
	})

	var s = "default"
	SetString(&s, "NAME")
	assert.Equal(t, "bucket", s)

	var n int64 = 7
	SetInt64(&n, "SIZE")
	assert.Equal(t, int64(1024), n)
	SetInt64(&n, "BAD_SIZE")
	assert.Equal(t, int64(1024), n, "malformed values keep the previous value")

	d := time.Minute
	SetDuration(&d, "TTL")
	assert.Equal(t, 90*time.Second, d)
	SetDuration(&d, "BAD_TTL")
	assert.Equal(t, 90*time.Second, d)
}

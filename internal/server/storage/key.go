package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/filex"
	"github.com/google/uuid"
)

// CleanFolder normalises a requested folder into a safe key prefix. Empty,
// "." and ".." segments are dropped; the rest are sanitised. An empty result
// becomes common.DefaultFolder.
func CleanFolder(folder string) string {
	folder = strings.ReplaceAll(strings.TrimSpace(folder), "\\", "/")

	var parts []string
	for _, seg := range strings.Split(folder, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		parts = append(parts, filex.SanitizeFileName(seg))
	}
	if len(parts) == 0 {
		return common.DefaultFolder
	}
	return strings.Join(parts, "/")
}

// NewObjectKey builds "<folder>/<unix-millis>-<8 hex>-<sanitised name>".
// The random component keeps keys unique for identical names in the same
// millisecond.
func NewObjectKey(folder, name string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s-%s", CleanFolder(folder), now.UnixMilli(), suffix, filex.SanitizeFileName(name))
}

// RootPrefix is the listing prefix that covers every object this service
// writes. An empty root yields "", which covers the whole bucket.
func RootPrefix(root string) string {
	if strings.Trim(root, "/ ") == "" {
		return ""
	}
	return CleanFolder(root) + "/"
}

// OwnerPrefix is the prefix of every key issued to userID.
func OwnerPrefix(root, userID string) string {
	return RootPrefix(root) + filex.SanitizeFileName(userID) + "/"
}

// NewOwnedKey places NewObjectKey under OwnerPrefix, giving
// "<root>/<user>/<folder>/<unix-millis>-<8 hex>-<name>".
func NewOwnedKey(root, userID, folder, name string, now time.Time) string {
	return NewObjectKey(OwnerPrefix(root, userID)+CleanFolder(folder), name, now)
}

// GeneratedName returns the last path element of key, which is the stored
// file name recorded alongside the original one.
func GeneratedName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// PublicURL joins endpoint, bucket and key with exactly one slash between
// them. Key segments are path-escaped.
func PublicURL(endpoint, bucket, key string) string {
	segs := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(strings.Trim(bucket, "/")) + "/" + strings.Join(segs, "/")
}

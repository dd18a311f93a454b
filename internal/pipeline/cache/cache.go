package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(New)

// Cache 文件缓存，按 key 存 JSON 文件，过期清理由定时任务触发
type Cache struct {
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

func (c *Cache) path(key string) string {
	// key 可能含路径分隔符
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(c.dir, safe+".json")
}

func (c *Cache) Write(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

// Read 读取缓存项，不存在或超过 maxAge 时 ok 为 false
func (c *Cache) Read(key string, maxAge time.Duration, value any) (ok bool, err error) {
	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// Expire 删除修改时间早于 olderThan 的缓存文件，返回删除数量
func (c *Cache) Expire(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			c.logger.Warn("failed to remove expired cache file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

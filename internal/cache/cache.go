// Package cache 持久化 AquesTalk 合成结果。
// 引擎输出只取决于音声记号列、编码与语速，因此可以按三者缓存。
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iabetor/aquestalk/internal/aquestalk"
	"github.com/iabetor/aquestalk/internal/logger"
)

// Stats 缓存统计。
type Stats struct {
	Entries int
	Size    int64 // 字节
	MaxSize int64 // 字节，0 表示禁用
	Hits    int64
}

// Cache 基于 SQLite 的合成结果缓存，按 last_used 做 LRU 淘汰。
type Cache struct {
	mu      sync.Mutex
	db      *sql.DB
	path    string
	maxSize int64
	now     func() time.Time
}

// Key 计算缓存键。记号列先做与合成时相同的规范化，语速按引擎范围截断。
func Key(phonemes string, enc aquestalk.Encoding, speed int) string {
	speed, _ = aquestalk.ClampSpeed(speed)
	koe := aquestalk.NormalizePhonemes(phonemes)
	sum := sha256.Sum256([]byte(enc.String() + "|" + strconv.Itoa(speed) + "|" + koe))
	return hex.EncodeToString(sum[:])
}

// Open 打开或创建缓存数据库。maxSizeMB 为 0 时返回禁用的缓存，不创建文件。
func Open(path string, maxSizeMB int64) (*Cache, error) {
	c := &Cache{path: path, maxSize: maxSizeMB * 1024 * 1024, now: time.Now}
	if maxSizeMB <= 0 {
		c.maxSize = 0
		return c, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("[cache] 创建缓存目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("[cache] 打开数据库失败: %w", err)
	}

	// 设置 WAL 模式（更好的并发性能）
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("[cache] 设置 WAL 模式失败: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	c.db = db
	logger.Infof("[cache] 缓存已打开: %s (上限 %dMB)", path, maxSizeMB)
	return c, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS synth_cache (
			key TEXT PRIMARY KEY,
			phonemes TEXT NOT NULL,
			encoding TEXT NOT NULL,
			speed INTEGER NOT NULL,
			wav BLOB NOT NULL,
			size INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			last_used INTEGER NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_synth_cache_last_used ON synth_cache(last_used)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("[cache] 数据库迁移失败: %w", err)
		}
	}
	return nil
}

// Enabled 返回缓存是否启用。
func (c *Cache) Enabled() bool {
	return c != nil && c.db != nil
}

// Path 返回数据库文件路径。
func (c *Cache) Path() string { return c.path }

// Get 查找缓存，命中时更新使用时间与命中次数。
func (c *Cache) Get(phonemes string, enc aquestalk.Encoding, speed int) (*aquestalk.Audio, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	key := Key(phonemes, enc, speed)

	c.mu.Lock()
	defer c.mu.Unlock()

	var wav []byte
	err := c.db.QueryRow(`SELECT wav FROM synth_cache WHERE key = ?`, key).Scan(&wav)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[cache] 查询缓存失败: %w", err)
	}

	if _, err := c.db.Exec(`UPDATE synth_cache SET last_used = ?, hits = hits + 1 WHERE key = ?`,
		c.now().UnixNano(), key); err != nil {
		logger.Warnf("[cache] 更新使用时间失败: %v", err)
	}

	return aquestalk.NewAudio(wav, aquestalk.SampleRate, aquestalk.BitsPerSample, aquestalk.Channels), true, nil
}

// Put 写入缓存，超出上限时淘汰最久未使用的条目。
// 单条超过上限的结果不缓存。
func (c *Cache) Put(phonemes string, enc aquestalk.Encoding, speed int, a *aquestalk.Audio) error {
	if !c.Enabled() || a == nil {
		return nil
	}
	size := int64(a.Len())
	if size > c.maxSize {
		logger.Warnf("[cache] 音频过大 (%d 字节)，超过缓存上限，跳过", size)
		return nil
	}

	clamped, _ := aquestalk.ClampSpeed(speed)
	key := Key(phonemes, enc, speed)
	now := c.now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`INSERT INTO synth_cache (key, phonemes, encoding, speed, wav, size, created_at, last_used, hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET wav = excluded.wav, size = excluded.size, last_used = excluded.last_used`,
		key, aquestalk.NormalizePhonemes(phonemes), enc.String(), clamped, a.Bytes(), size, now, now)
	if err != nil {
		return fmt.Errorf("[cache] 写入缓存失败: %w", err)
	}
	return c.evict()
}

// evict 按 last_used 从旧到新删除，直到总大小不超过上限。调用方持有锁。
func (c *Cache) evict() error {
	var total int64
	if err := c.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM synth_cache`).Scan(&total); err != nil {
		return fmt.Errorf("[cache] 统计缓存大小失败: %w", err)
	}
	if total <= c.maxSize {
		return nil
	}

	rows, err := c.db.Query(`SELECT key, size FROM synth_cache ORDER BY last_used ASC`)
	if err != nil {
		return fmt.Errorf("[cache] 查询淘汰候选失败: %w", err)
	}
	var victims []string
	for rows.Next() && total > c.maxSize {
		var key string
		var size int64
		if err := rows.Scan(&key, &size); err != nil {
			rows.Close()
			return fmt.Errorf("[cache] 读取淘汰候选失败: %w", err)
		}
		victims = append(victims, key)
		total -= size
	}
	rows.Close()

	for _, key := range victims {
		if _, err := c.db.Exec(`DELETE FROM synth_cache WHERE key = ?`, key); err != nil {
			return fmt.Errorf("[cache] 淘汰缓存失败: %w", err)
		}
	}
	logger.Debugf("[cache] 淘汰 %d 条缓存", len(victims))
	return nil
}

// Delete 删除一条缓存。
func (c *Cache) Delete(phonemes string, enc aquestalk.Encoding, speed int) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`DELETE FROM synth_cache WHERE key = ?`, Key(phonemes, enc, speed)); err != nil {
		return fmt.Errorf("[cache] 删除缓存失败: %w", err)
	}
	return nil
}

// Stats 返回当前统计。
func (c *Cache) Stats() (Stats, error) {
	if !c.Enabled() {
		return Stats{}, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{MaxSize: c.maxSize}
	err := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0), COALESCE(SUM(hits), 0) FROM synth_cache`).
		Scan(&s.Entries, &s.Size, &s.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("[cache] 统计失败: %w", err)
	}
	return s, nil
}

// Clear 清空所有缓存。
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(`DELETE FROM synth_cache`); err != nil {
		return fmt.Errorf("[cache] 清空缓存失败: %w", err)
	}
	return nil
}

// Close 关闭数据库。
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Close()
	c.db = nil
	return err
}

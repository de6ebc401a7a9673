package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix 所有页面缓存 key 的命名空间
const KeyPrefix = "trendscraper:cache:"

const (
	defaultTTL    = time.Hour
	scanBatchSize = 500
)

// Manager 基于 Redis 的页面缓存。
// Redis 不可用时所有操作退化为未命中 / 写入失败，从不向调用方返回错误。
type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

// Stats 缓存统计信息，INFO 不可用时对应字段为 "N/A"
type Stats struct {
	TotalKeys        int64  `json:"totalKeys"`
	NamespaceKeys    int64  `json:"namespaceKeys"`
	UsedMemory       string `json:"usedMemory"`
	ConnectedClients string `json:"connectedClients"`
}

// New 创建缓存管理器；client 为 nil 时缓存处于禁用状态
func New(client *redis.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{client: client, ttl: ttl}
}

// Enabled 是否配置了 Redis
func (m *Manager) Enabled() bool {
	return m != nil && m.client != nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// keyMaterial 参数放在独立字段下，调用方的 "url" 参数不会覆盖目标地址
type keyMaterial struct {
	URL    string            `json:"url"`
	Params map[string]string `json:"params,omitempty"`
}

// Key 根据目标地址与参数生成缓存 key。
// encoding/json 对 map 按 key 排序输出，参数插入顺序不影响结果。
func Key(target string, params map[string]string) string {
	bs, _ := json.Marshal(keyMaterial{URL: target, Params: params})
	sum := sha1.Sum(bs)
	return KeyPrefix + hex.EncodeToString(sum[:])
}

func (m *Manager) Get(ctx context.Context, target string, params map[string]string) (string, bool) {
	if !m.Enabled() {
		return "", false
	}
	val, err := m.client.Get(ctx, Key(target, params)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s: %v", target, err)
		}
		return "", false
	}
	if val == "" {
		return "", false
	}
	return val, true
}

// Set 写入缓存，ttl <= 0 时使用默认 TTL
func (m *Manager) Set(ctx context.Context, target, content string, params map[string]string, ttl time.Duration) bool {
	if !m.Enabled() {
		return false
	}
	if ttl <= 0 {
		ttl = m.ttl
	}
	if err := m.client.Set(ctx, Key(target, params), content, ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", target, err)
		return false
	}
	return true
}

// ClearAll 删除匹配 pattern 的所有 key，pattern 为空时清理整个命名空间。
// 使用 SCAN 分批遍历，避免 KEYS 阻塞 Redis。
func (m *Manager) ClearAll(ctx context.Context, pattern string) int {
	if !m.Enabled() {
		return 0
	}
	if pattern == "" {
		pattern = KeyPrefix + "*"
	}

	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := m.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			log.Printf("cache: scan %s: %v", pattern, err)
			return 0
		}
		if len(keys) > 0 {
			n, err := m.client.Del(ctx, keys...).Result()
			if err != nil {
				log.Printf("cache: delete %d keys: %v", len(keys), err)
				return 0
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	log.Printf("cache: cleared %d entries", deleted)
	return int(deleted)
}

// Ping 存活探测
func (m *Manager) Ping(ctx context.Context) bool {
	if !m.Enabled() {
		return false
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		log.Printf("cache: ping failed: %v", err)
		return false
	}
	return true
}

// Stats 汇总 key 数量与 Redis 内存、连接信息
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	st := Stats{UsedMemory: "N/A", ConnectedClients: "N/A"}
	if !m.Enabled() {
		return st, errors.New("cache: redis not configured")
	}

	total, err := m.client.DBSize(ctx).Result()
	if err != nil {
		return st, err
	}
	st.TotalKeys = total

	var cursor uint64
	for {
		keys, next, err := m.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return st, err
		}
		st.NamespaceKeys += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if info, err := m.client.Info(ctx, "memory").Result(); err == nil {
		if v := infoField(info, "used_memory_human"); v != "" {
			st.UsedMemory = v
		}
	}
	if info, err := m.client.Info(ctx, "clients").Result(); err == nil {
		if v := infoField(info, "connected_clients"); v != "" {
			st.ConnectedClients = v
		}
	}
	return st, nil
}

// infoField 从 INFO 输出（key:value 每行一条）中取字段
func infoField(info, field string) string {
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if k, v, ok := strings.Cut(line, ":"); ok && k == field {
			return v
		}
	}
	return ""
}

// Close 关闭底层连接
func (m *Manager) Close() error {
	if !m.Enabled() {
		return nil
	}
	return m.client.Close()
}

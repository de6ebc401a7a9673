package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LJTian/TrendScraper/internal/processor"
)

const (
	listCacheTTL     = 5 * time.Minute
	defaultListLimit = 20
	maxListLimit     = 500
	summaryColumnLen = 600
)

// Trend 历史趋势，URL 唯一
type Trend struct {
	ID           string         `gorm:"primaryKey;size:40" json:"id"`
	Title        string         `gorm:"size:512" json:"title"`
	URL          string         `gorm:"size:1024;uniqueIndex" json:"url"`
	Source       string         `gorm:"size:64;index" json:"source"`
	Summary      string         `gorm:"size:600" json:"summary"`
	Tags         datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	ObservedAt   time.Time      `gorm:"index" json:"observedAt"`
	ObservedDate string         `gorm:"size:10;index" json:"observedDate"` // YYYY-MM-DD (UTC)

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScrapeRun 每个来源每轮采集一条记录
type ScrapeRun struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Source    string    `gorm:"size:64;index" json:"source"`
	Total     int       `json:"total"`
	StartedAt time.Time `gorm:"index" json:"startedAt"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore 连接 Postgres 并自动迁移；rdb 可为 nil（不使用列表缓存）
func NewStore(dsn string, rdb *redis.Client) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Trend{}, &ScrapeRun{}); err != nil {
		return nil, err
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

func encodeTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	bs, err := json.Marshal(tags)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(bs)
}

// SaveBatch 以 URL 为幂等键保存一批趋势，返回本次新增的条目；已存在的只更新标题/摘要/标签
func (s *Store) SaveBatch(items []processor.ProcessedTrend) ([]processor.ProcessedTrend, error) {
	created := make([]processor.ProcessedTrend, 0, len(items))
	for _, it := range items {
		title := toValidUTF8(it.Title)
		summary := truncateRunesDB(toValidUTF8(it.Summary), summaryColumnLen)
		tags := encodeTags(it.Tags)

		var existing Trend
		err := s.DB.Where("url = ?", it.URL).Take(&existing).Error
		switch {
		case err == nil:
			if err := s.DB.Model(&existing).Updates(map[string]any{
				"title":   title,
				"summary": summary,
				"tags":    tags,
			}).Error; err != nil {
				log.Printf("update trend %s error: %v", it.URL, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			observed := it.ObservedAt
			if observed.IsZero() {
				observed = time.Now()
			}
			observed = observed.UTC()
			t := &Trend{
				ID:           it.ID,
				Title:        title,
				URL:          it.URL,
				Source:       it.Source,
				Summary:      summary,
				Tags:         tags,
				ObservedAt:   observed,
				ObservedDate: observed.Format("2006-01-02"),
			}
			if err := s.DB.Create(t).Error; err != nil {
				return created, fmt.Errorf("create trend %s: %w", it.URL, err)
			}
			created = append(created, it)
		default:
			return created, fmt.Errorf("query trend %s: %w", it.URL, err)
		}
	}
	return created, nil
}

// RecordRun 记录一次采集
func (s *Store) RecordRun(source string, total int, startedAt time.Time) (*ScrapeRun, error) {
	run := &ScrapeRun{
		ID:        uuid.NewString(),
		Source:    source,
		Total:     total,
		StartedAt: startedAt.UTC(),
	}
	if err := s.DB.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func listCacheKey(source string, limit int) string {
	return fmt.Sprintf("trends:list:%s:%d", source, limit)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ListTrends 按来源返回最新趋势，source 为空表示全部；结果在 Redis 缓存 5 分钟
func (s *Store) ListTrends(ctx context.Context, source string, limit int) ([]Trend, error) {
	limit = normalizeLimit(limit)
	cacheKey := listCacheKey(source, limit)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Trend
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []Trend
	db := s.DB.WithContext(ctx).Model(&Trend{})
	if source != "" {
		db = db.Where("source = ?", source)
	}
	if err := db.Order("observed_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	// 不主动失效，依赖短 TTL 自然过期
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

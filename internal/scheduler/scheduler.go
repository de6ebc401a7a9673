package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/TrendScraper/internal/collector"
	"github.com/LJTian/TrendScraper/internal/processor"
	"github.com/LJTian/TrendScraper/internal/storage"
	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	startupDelay = 15 * time.Second
	runTimeout   = 10 * time.Minute
)

// Scraper 批量采集，生产环境为 collector.Manager
type Scraper interface {
	List() []string
	ScrapeAll(ctx context.Context, target string, opts collector.ScrapeOptions) map[string]*trend.Collection
}

// Saver 持久化，生产环境为 storage.Store
type Saver interface {
	SaveBatch(items []processor.ProcessedTrend) ([]processor.ProcessedTrend, error)
	RecordRun(source string, total int, startedAt time.Time) (*storage.ScrapeRun, error)
}

type Notifier interface {
	Configured() bool
	SendTrend(ctx context.Context, r trend.Record) error
}

type Publisher interface {
	PublishCollection(col *trend.Collection) (int, error)
}

// Deps 可选依赖为 nil 时跳过对应步骤
type Deps struct {
	Scraper   Scraper
	Processor *processor.SimpleProcessor
	Saver     Saver
	Notifier  Notifier
	Publisher Publisher

	NotifyMaxPerRun int
}

// RunResult 单轮采集结果
type RunResult struct {
	Counts    map[string]int `json:"counts"`
	Saved     int            `json:"saved"`
	Notified  int            `json:"notified"`
	Published int            `json:"published"`
}

type Scheduler struct {
	cron  *cron.Cron
	deps  Deps
	delay time.Duration

	timerMu sync.Mutex
	timer   *time.Timer // 首轮延迟采集

	mu sync.Mutex // 同一时间只允许一轮采集
}

func New(spec string, deps Deps) (*Scheduler, error) {
	if deps.Processor == nil {
		deps.Processor = processor.NewSimpleProcessor()
	}
	c := cron.New()

	s := &Scheduler{
		cron:  c,
		deps:  deps,
		delay: startupDelay,
	}

	_, err := c.AddFunc(spec, s.runScheduled)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免与服务启动争抢资源
	s.timerMu.Lock()
	s.timer = time.AfterFunc(s.delay, s.runScheduled)
	s.timerMu.Unlock()
}

// Stop 取消尚未触发的首轮采集，停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerMu.Unlock()

	<-s.cron.Stop().Done()
	// 等待进行中的 RunOnce 结束
	s.mu.Lock()
	defer s.mu.Unlock()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce(ctx context.Context) RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("start collect job...")
	started := time.Now()
	res := RunResult{Counts: make(map[string]int)}

	results := s.deps.Scraper.ScrapeAll(ctx, "", collector.ScrapeOptions{})
	cols := make([]*trend.Collection, 0, len(results))
	for _, name := range s.deps.Scraper.List() {
		col, ok := results[name]
		if !ok || col == nil {
			continue
		}
		cols = append(cols, col)
		res.Counts[name] = col.TotalCount()
		log.Printf("%s done, fetched=%d items", name, col.TotalCount())

		if s.deps.Saver != nil {
			if _, err := s.deps.Saver.RecordRun(name, col.TotalCount(), started); err != nil {
				log.Printf("record run %s error: %v", name, err)
			}
		}
	}

	processed := s.deps.Processor.Process(cols...)
	if s.deps.Saver != nil && len(processed) > 0 {
		created, err := s.deps.Saver.SaveBatch(processed)
		if err != nil {
			log.Printf("save batch error: %v", err)
		}
		res.Saved = len(created)
		res.Notified = s.notify(ctx, created)
	}

	if s.deps.Publisher != nil {
		for _, col := range cols {
			n, err := s.deps.Publisher.PublishCollection(col)
			res.Published += n
			if err != nil {
				log.Printf("publish %s error: %v", col.Source, err)
			}
		}
	}

	log.Printf("collect job done: saved=%d notified=%d published=%d (%s)", res.Saved, res.Notified, res.Published, time.Since(started).Round(time.Millisecond))
	return res
}

// notify 只推送新增条目，且每轮不超过 NotifyMaxPerRun 条
func (s *Scheduler) notify(ctx context.Context, created []processor.ProcessedTrend) int {
	if s.deps.Notifier == nil || !s.deps.Notifier.Configured() || s.deps.NotifyMaxPerRun <= 0 {
		return 0
	}
	sent := 0
	for _, it := range created {
		if sent >= s.deps.NotifyMaxPerRun {
			break
		}
		err := s.deps.Notifier.SendTrend(ctx, trend.Record{
			Title:      it.Title,
			URL:        it.URL,
			Source:     it.Source,
			Summary:    it.Summary,
			Tags:       it.Tags,
			ObservedAt: it.ObservedAt,
		})
		if err != nil {
			log.Printf("notify %s error: %v", it.URL, err)
			continue
		}
		sent++
	}
	return sent
}

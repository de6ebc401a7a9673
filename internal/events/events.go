package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	clientName    = "trendscraper"
	maxReconnects = 10
	reconnectWait = 2 * time.Second
	connectWait   = 5 * time.Second
)

// conn 是 *nats.Conn 中用到的部分
type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher 将采集到的趋势逐条发布到 NATS：<subject>.<source>
type Publisher struct {
	conn    conn
	subject string
}

// Connect 连接 NATS；url 为空时返回 nil（不发布）
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.Timeout(connectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *Publisher {
	if subject == "" {
		subject = "trends"
	}
	return &Publisher{conn: c, subject: subject}
}

// Subject 来源名称中的 '.' 和空白会被替换，避免拆出多余的 token
func (p *Publisher) Subject(source string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '*', '>':
			return '_'
		}
		return r
	}, source)
	if token == "" {
		token = "unknown"
	}
	return p.subject + "." + token
}

// PublishCollection 发布集合中的每条记录，返回成功条数；遇到第一个错误即停止
func (p *Publisher) PublishCollection(col *trend.Collection) (int, error) {
	if p == nil || col == nil {
		return 0, nil
	}
	subject := p.Subject(col.Source)
	sent := 0
	for _, r := range col.Trends() {
		data, err := json.Marshal(r)
		if err != nil {
			return sent, fmt.Errorf("marshal trend: %w", err)
		}
		if err := p.conn.Publish(subject, data); err != nil {
			return sent, fmt.Errorf("publish %s: %w", subject, err)
		}
		sent++
	}
	return sent, nil
}

func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

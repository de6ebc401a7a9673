package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/TrendScraper/internal/trend"
)

const (
	defaultUsername   = "TrendScraper Bot"
	trendColor        = 0xff6b35
	embedDefaultColor = 0x00ff00
	maxDescriptionLen = 2000
	maxErrorBodyBytes = 1 << 10
)

// Message 纯文本消息
type Message struct {
	Content   string `json:"content" binding:"required"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Embed 富文本卡片消息
type Embed struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Color       int          `json:"color,omitempty"`
	URL         string       `json:"url,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Username    string       `json:"username,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
}

type embedPayload struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	URL         string       `json:"url,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type webhookPayload struct {
	Content   string         `json:"content,omitempty"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []embedPayload `json:"embeds,omitempty"`
}

// Discord 通过 webhook 推送消息；失败不重试
type Discord struct {
	webhookURL string
	username   string
	client     *http.Client
}

func NewDiscord(webhookURL, username string, timeout time.Duration) *Discord {
	if username == "" {
		username = defaultUsername
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Discord{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: timeout},
	}
}

// Configured 是否配置了 webhook 地址
func (d *Discord) Configured() bool {
	return d != nil && d.webhookURL != ""
}

func (d *Discord) SendMessage(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("discord: empty message content")
	}
	return d.send(ctx, webhookPayload{
		Content:   m.Content,
		Username:  d.usernameOr(m.Username),
		AvatarURL: m.AvatarURL,
	})
}

func (d *Discord) SendEmbed(ctx context.Context, e Embed) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("discord: empty embed title")
	}
	color := e.Color
	if color == 0 {
		color = embedDefaultColor
	}
	return d.send(ctx, webhookPayload{
		Username:  d.usernameOr(e.Username),
		AvatarURL: e.AvatarURL,
		Embeds: []embedPayload{{
			Title:       e.Title,
			Description: e.Description,
			Color:       color,
			URL:         e.URL,
			Fields:      e.Fields,
		}},
	})
}

// SendTrend 推送单条趋势卡片
func (d *Discord) SendTrend(ctx context.Context, r trend.Record) error {
	return d.SendEmbed(ctx, TrendEmbed(r))
}

// TrendEmbed 将趋势转换为卡片：标题、摘要、来源与标签
func TrendEmbed(r trend.Record) Embed {
	title := r.Title
	if title == "" {
		title = "Unknown"
	}
	desc := trend.TruncateRunes(r.Summary, maxDescriptionLen)
	if desc == "" {
		desc = "No summary available"
	}
	source := r.Source
	if source == "" {
		source = "Unknown"
	}
	tags := strings.Join(r.Tags, ", ")
	if tags == "" {
		tags = "None"
	}
	return Embed{
		Title:       "New Trend: " + title,
		Description: desc,
		Color:       trendColor,
		URL:         r.URL,
		Fields: []EmbedField{
			{Name: "Source", Value: source, Inline: true},
			{Name: "Tags", Value: tags, Inline: true},
		},
	}
}

func (d *Discord) usernameOr(name string) string {
	if name != "" {
		return name
	}
	return d.username
}

func (d *Discord) send(ctx context.Context, payload webhookPayload) error {
	if !d.Configured() {
		return fmt.Errorf("discord: webhook url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		log.Printf("discord: webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}
	log.Printf("discord: message sent")
	return nil
}

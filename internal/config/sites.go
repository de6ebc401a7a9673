package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site 额外的 HTML 站点，来自 SITES_FILE 指定的 YAML 文件
type Site struct {
	Name        string   `yaml:"name"`
	BaseURL     string   `yaml:"base_url"`
	DefaultURL  string   `yaml:"default_url"`
	DatePattern string   `yaml:"date_pattern"`
	Blocklist   []string `yaml:"blocklist"`
	MaxItems    int      `yaml:"max_items"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites 读取站点配置；path 为空时返回空列表
func LoadSites(path string) ([]Site, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return ParseSites(data)
}

func ParseSites(data []byte) ([]Site, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Sites))
	for i, s := range f.Sites {
		if s.Name == "" {
			return nil, fmt.Errorf("sites[%d]: name is required", i)
		}
		if s.DefaultURL == "" && s.BaseURL == "" {
			return nil, fmt.Errorf("sites[%d] %s: base_url or default_url is required", i, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("sites[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return f.Sites, nil
}

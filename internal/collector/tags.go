package collector

import (
	"strings"

	"github.com/LJTian/TrendScraper/internal/trend"
)

type tagRule struct {
	tag      string
	keywords []string
}

// tagRules 顺序即输出顺序；关键词按子串匹配，"ai" 也会命中 "maintain" 之类的词
var tagRules = []tagRule{
	{"ai", []string{"ai", "artificial intelligence", "machine learning", "ml", "llm"}},
	{"startup", []string{"startup", "founded", "launches", "new company"}},
	{"funding", []string{"funding", "raises", "investment", "series a", "series b", "round"}},
	{"crypto", []string{"crypto", "bitcoin", "blockchain", "web3", "nft"}},
	{"mobile", []string{"app", "mobile", "ios", "android", "iphone"}},
	{"saas", []string{"saas", "software", "platform", "service"}},
	{"fintech", []string{"fintech", "payments", "banking", "finance"}},
	{"security", []string{"security", "breach", "hack", "cybersecurity"}},
	{"acquisition", []string{"acquired", "acquisition", "buys", "merger"}},
	{"product", []string{"product", "feature", "update", "release"}},
}

// DeriveTags 根据标题与摘要做关键词打标，最多 5 个
func DeriveTags(title, summary string) []string {
	text := strings.ToLower(title + " " + summary)
	tags := make([]string, 0, trend.MaxTags)
	for _, rule := range tagRules {
		if len(tags) >= trend.MaxTags {
			break
		}
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}

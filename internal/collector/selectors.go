package collector

import (
	"github.com/PuerkitoBio/goquery"
)

// 页面结构不稳定，以下选择器均按优先级排列，靠前者优先生效

// containerSelectors 文章容器：第一个有匹配结果的选择器生效
var containerSelectors = []string{
	"article",
	`[data-module="ArticleLink"]`,
	`[data-module="ClickGoal"]`,
	".post",
	".story",
	".card",
	`div[class*="post"]`,
	`div[class*="story"]`,
	`div[class*="article"]`,
}

// titleFinder 在容器内查找标题链接，未找到时返回空 Selection
type titleFinder func(e *HTMLExtractor, container *goquery.Selection) *goquery.Selection

func selectorFinder(selector string) titleFinder {
	return func(_ *HTMLExtractor, container *goquery.Selection) *goquery.Selection {
		return container.Find(selector).First()
	}
}

// titleFinders 标题链接：第一个文本非空的结果生效
var titleFinders = []titleFinder{
	selectorFinder("h1 a"),
	selectorFinder("h2 a"),
	selectorFinder("h3 a"),
	selectorFinder("h4 a"),
	selectorFinder(`a[data-module="ClickGoal"]`),
	selectorFinder(".title a"),
	selectorFinder(".headline a"),
	func(e *HTMLExtractor, container *goquery.Selection) *goquery.Selection {
		return container.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			return e.datePattern.MatchString(href)
		}).First()
	},
}

// summarySelectors 摘要：按顺序取第一个长度在 (20, 500) 之间的文本
var summarySelectors = []string{
	".excerpt",
	".summary",
	".description",
	`p[class*="excerpt"]`,
	`div[class*="excerpt"]`,
	"p",
	"div",
}

// defaultBlocklist 导航/订阅类链接文案
var defaultBlocklist = []string{
	"read more",
	"continue reading",
	"subscribe",
	"newsletter",
	"follow us",
}

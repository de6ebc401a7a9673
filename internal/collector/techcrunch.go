package collector

// TechCrunchProfile TechCrunch 首页：文章 URL 形如 /2025/01/02/slug/
var TechCrunchProfile = Profile{
	Name:        "techcrunch",
	BaseURL:     "https://techcrunch.com",
	DefaultURL:  "https://techcrunch.com/",
	DatePattern: `/20\d{2}/`,
	Blocklist:   []string{"techcrunch"},
	MaxItems:    defaultMaxItems,
}

// NewTechCrunch 配置固定，构造不会失败
func NewTechCrunch() *HTMLExtractor {
	e, err := NewHTMLExtractor(TechCrunchProfile)
	if err != nil {
		panic(err)
	}
	return e
}

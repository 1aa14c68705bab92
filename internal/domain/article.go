package domain

import (
	"fmt"
	"strings"
)

// Article is a single press release captured by the crawler.
type Article struct {
	ID          int64
	Title       string
	Link        string
	PublishedAt string
	Company     string
	Industry    string
	Content     string
}

// Validate checks the fields every stored article must carry.
func (a Article) Validate() error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("article title is empty")
	case strings.TrimSpace(a.Link) == "":
		return fmt.Errorf("article link is empty")
	case strings.TrimSpace(a.Content) == "":
		return fmt.Errorf("article content is empty")
	}
	return nil
}

// Industry codes accepted by the press-release search.
const (
	IndustryAll = 0
	IndustryMax = 14
)

var industryNames = map[int]string{
	0:  "すべて",
	1:  "情報・通信",
	2:  "メディア",
	3:  "電機",
	4:  "金融・保険",
	5:  "自動車",
	6:  "輸送・レジャー",
	7:  "食品",
	8:  "流通・外食",
	9:  "日用品",
	10: "医薬・医療",
	11: "建設・不動産",
	12: "機械",
	13: "素材・エネルギー",
	14: "商社・サービス",
}

// IndustryName returns the display label for an industry code.
func IndustryName(code int) (string, bool) {
	name, ok := industryNames[code]
	return name, ok
}

// Industry pairs a search code with its label.
type Industry struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Industries lists every industry in code order.
func Industries() []Industry {
	out := make([]Industry, 0, len(industryNames))
	for code := IndustryAll; code <= IndustryMax; code++ {
		out = append(out, Industry{Code: code, Name: industryNames[code]})
	}
	return out
}

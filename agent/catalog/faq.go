package catalog

import (
	"encoding/json"
	"strings"

	matcherx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/matcher"
)

const (
	defaultCompanyName = "our company"
	defaultProductName = "our product"
)

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQ struct {
	CompanyName string     `json:"company_name"`
	Product     string     `json:"product"`
	Entries     []FAQEntry `json:"faqs"`
}

func (f FAQ) Company() string {
	if name := strings.TrimSpace(f.CompanyName); name != "" {
		return name
	}
	return defaultCompanyName
}

func (f FAQ) ProductName() string {
	if name := strings.TrimSpace(f.Product); name != "" {
		return name
	}
	return defaultProductName
}

// Search scores the query against questions (primary) and answers.
func (f FAQ) Search(query string) (FAQEntry, bool) {
	m, ok := matcherx.Search(query, f.Entries, func(e FAQEntry) matcherx.Fields {
		return matcherx.Fields{Primary: e.Question, Secondary: []string{e.Answer}}
	})
	if !ok {
		return FAQEntry{}, false
	}
	return m.Item, true
}

func DecodeFAQ(data []byte) (FAQ, error) {
	var doc FAQ
	if err := json.Unmarshal(data, &doc); err != nil {
		return FAQ{}, err
	}
	return doc, nil
}

func NewFAQStore(path string) *Store[FAQ] {
	return NewStore("faq", path, DecodeFAQ, func() FAQ { return FAQ{} })
}

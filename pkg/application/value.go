package application

import (
	"cmp"
	"slices"
	"strings"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"golang.org/x/net/publicsuffix"
)

// DomainValue is the ranking of one available domain
type DomainValue struct {
	Domain  string
	Label   string
	TLD     string
	Digits  bool
	Hyphens int
	Score   int
}

var tldBonus = map[string]int{
	"com": 20,
	"net": 10,
	"org": 10,
	"io":  10,
	"ai":  10,
}

// ScoreDomain rates a domain name: short, letters-only labels under
// well-known TLDs score highest
func ScoreDomain(domain string) DomainValue {
	tld, _ := publicsuffix.PublicSuffix(domain)
	label := strings.TrimSuffix(strings.TrimSuffix(domain, tld), ".")
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}

	value := DomainValue{
		Domain:  domain,
		Label:   label,
		TLD:     tld,
		Digits:  strings.ContainsAny(label, "0123456789"),
		Hyphens: strings.Count(label, "-"),
	}

	score := 100 - 4*max(len(label)-4, 0) - 20*value.Hyphens + tldBonus[tld]
	if value.Digits {
		score -= 15
	}
	value.Score = max(score, 0)
	return value
}

// RankAvailable scores the available domains in results, best first
func RankAvailable(results []entity.DomainResult) []DomainValue {
	var values []DomainValue
	for _, result := range results {
		if result.Status == entity.StatusAvailable {
			values = append(values, ScoreDomain(result.Domain))
		}
	}
	slices.SortFunc(values, func(a, b DomainValue) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Domain, b.Domain)
	})
	return values
}

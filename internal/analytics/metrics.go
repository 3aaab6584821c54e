package analytics

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/virshi-ai/visibility-api/internal/models"
)

// SentimentBreakdown counts scan responses per sentiment label.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// SourceCount pairs a cited domain with how often it appeared.
type SourceCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Summary aggregates a project's scan results into dashboard metrics.
// Percentages are 0..100, rounded down to the caller's display layer.
type Summary struct {
	TotalScans        int                `json:"total_scans"`
	BrandPresencePct  float64            `json:"brand_presence_pct"`
	ShareOfVoicePct   float64            `json:"share_of_voice_pct"`
	OfficialSourcePct float64            `json:"official_source_pct"`
	Sentiment         SentimentBreakdown `json:"sentiment"`
	TopSources        []SourceCount      `json:"top_sources"`
}

// BrandPresence returns the percentage of responses that mention the
// brand name or its domain.
func BrandPresence(results []models.ScanResult, brandName, domain string) float64 {
	if len(results) == 0 {
		return 0
	}
	brand := strings.ToLower(strings.TrimSpace(brandName))
	host := Domain(domain)
	hits := 0
	for _, r := range results {
		text := strings.ToLower(r.Response)
		if brand != "" && strings.Contains(text, brand) {
			hits++
			continue
		}
		if host != "" && strings.Contains(text, host) {
			hits++
		}
	}
	return pct(hits, len(results))
}

// ShareOfVoice returns the brand's mentions as a percentage of all
// brand-plus-competitor mentions across responses. With no mentions at
// all it returns 0.
func ShareOfVoice(results []models.ScanResult, brandName string, competitors []string) float64 {
	brand := strings.ToLower(strings.TrimSpace(brandName))
	if brand == "" {
		return 0
	}
	brandMentions, totalMentions := 0, 0
	for _, r := range results {
		text := strings.ToLower(r.Response)
		count := strings.Count(text, brand)
		brandMentions += count
		totalMentions += count
		for _, competitor := range competitors {
			competitor = strings.ToLower(strings.TrimSpace(competitor))
			if competitor == "" || competitor == brand {
				continue
			}
			totalMentions += strings.Count(text, competitor)
		}
	}
	if totalMentions == 0 {
		return 0
	}
	return pct(brandMentions, totalMentions)
}

// Sentiments tallies results per sentiment label. Unknown labels count
// as neutral.
func Sentiments(results []models.ScanResult) SentimentBreakdown {
	var breakdown SentimentBreakdown
	for _, r := range results {
		switch r.Sentiment {
		case models.SentimentPositive:
			breakdown.Positive++
		case models.SentimentNegative:
			breakdown.Negative++
		default:
			breakdown.Neutral++
		}
	}
	return breakdown
}

// OfficialSourceShare returns the percentage of cited sources that
// belong to one of the project's official domains.
func OfficialSourceShare(results []models.ScanResult, officialSources []string) float64 {
	official, total := 0, 0
	for _, r := range results {
		for _, source := range decodeSources(r) {
			total++
			for _, officialURL := range officialSources {
				if SameDomain(source, officialURL) {
					official++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return pct(official, total)
}

// TopSources returns the most-cited domains across results, most
// frequent first, capped at limit.
func TopSources(results []models.ScanResult, limit int) []SourceCount {
	if limit <= 0 {
		limit = 10
	}
	counts := make(map[string]int)
	for _, r := range results {
		for _, source := range decodeSources(r) {
			if host := Domain(source); host != "" {
				counts[host]++
			}
		}
	}

	top := make([]SourceCount, 0, len(counts))
	for domain, count := range counts {
		top = append(top, SourceCount{Domain: domain, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Domain < top[j].Domain
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// Summarize computes the full dashboard summary for one project's
// scan results.
func Summarize(results []models.ScanResult, brandName, domain string, officialSources, competitors []string) Summary {
	return Summary{
		TotalScans:        len(results),
		BrandPresencePct:  BrandPresence(results, brandName, domain),
		ShareOfVoicePct:   ShareOfVoice(results, brandName, competitors),
		OfficialSourcePct: OfficialSourceShare(results, officialSources),
		Sentiment:         Sentiments(results),
		TopSources:        TopSources(results, 10),
	}
}

func decodeSources(r models.ScanResult) []string {
	if len(r.Sources) == 0 {
		return nil
	}
	var sources []string
	if errDecode := json.Unmarshal([]byte(r.Sources), &sources); errDecode != nil {
		return nil
	}
	return sources
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

package analytics

import (
	"testing"

	"github.com/virshi-ai/visibility-api/internal/models"
	"gorm.io/datatypes"
)

func TestCleanURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.acme.test/", "acme.test"},
		{"http://acme.test/pricing/", "acme.test/pricing"},
		{"acme.test", "acme.test"},
		{"WWW.ACME.TEST/Docs", "acme.test/Docs"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := CleanURL(tc.in); got != tc.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDomainAndSameDomain(t *testing.T) {
	if got := Domain("https://www.acme.test:8443/pricing"); got != "acme.test" {
		t.Fatalf("Domain = %q", got)
	}
	if !SameDomain("https://blog.acme.test/post", "acme.test") {
		t.Fatalf("subdomain must match the official domain")
	}
	if SameDomain("https://acme.test.evil.example", "") {
		t.Fatalf("blank domain must never match")
	}
	if SameDomain("https://other.example", "acme.test") {
		t.Fatalf("unrelated domains must not match")
	}
}

func scanRow(response, sentiment string, sources string) models.ScanResult {
	row := models.ScanResult{Response: response, Sentiment: sentiment}
	if sources != "" {
		row.Sources = datatypes.JSON(sources)
	}
	return row
}

func TestBrandPresence(t *testing.T) {
	results := []models.ScanResult{
		scanRow("Acme is the market leader.", models.SentimentPositive, ""),
		scanRow("Try acme.test for pricing.", models.SentimentNeutral, ""),
		scanRow("Several vendors exist.", models.SentimentNeutral, ""),
		scanRow("WidgetCo beats everyone.", models.SentimentNegative, ""),
	}

	got := BrandPresence(results, "Acme", "https://www.acme.test")
	if got != 50 {
		t.Fatalf("BrandPresence = %v, want 50", got)
	}
	if BrandPresence(nil, "Acme", "acme.test") != 0 {
		t.Fatalf("empty results must yield 0")
	}
}

func TestShareOfVoice(t *testing.T) {
	results := []models.ScanResult{
		scanRow("Acme and WidgetCo both compete; Acme is newer.", "", ""),
		scanRow("WidgetCo remains popular.", "", ""),
	}

	// 2 acme mentions vs 2 widgetco mentions.
	got := ShareOfVoice(results, "Acme", []string{"WidgetCo"})
	if got != 50 {
		t.Fatalf("ShareOfVoice = %v, want 50", got)
	}
	if ShareOfVoice(results, "", []string{"WidgetCo"}) != 0 {
		t.Fatalf("blank brand must yield 0")
	}
	if ShareOfVoice(nil, "Acme", nil) != 0 {
		t.Fatalf("no mentions must yield 0")
	}
}

func TestSentiments(t *testing.T) {
	results := []models.ScanResult{
		scanRow("", models.SentimentPositive, ""),
		scanRow("", models.SentimentPositive, ""),
		scanRow("", models.SentimentNegative, ""),
		scanRow("", "", ""),
		scanRow("", "unexpected-label", ""),
	}

	got := Sentiments(results)
	if got.Positive != 2 || got.Negative != 1 || got.Neutral != 2 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}

func TestOfficialSourceShare(t *testing.T) {
	results := []models.ScanResult{
		scanRow("", "", `["https://www.acme.test/docs","https://review.example/acme"]`),
		scanRow("", "", `["https://blog.acme.test/launch","https://news.example"]`),
	}

	got := OfficialSourceShare(results, []string{"acme.test"})
	if got != 50 {
		t.Fatalf("OfficialSourceShare = %v, want 50", got)
	}
	if OfficialSourceShare(results, nil) != 0 {
		t.Fatalf("no official sources must yield 0")
	}
}

func TestTopSources(t *testing.T) {
	results := []models.ScanResult{
		scanRow("", "", `["https://acme.test/a","https://review.example/x"]`),
		scanRow("", "", `["https://acme.test/b"]`),
		scanRow("", "", `["https://news.example"]`),
	}

	top := TopSources(results, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(top))
	}
	if top[0].Domain != "acme.test" || top[0].Count != 2 {
		t.Fatalf("unexpected top source: %+v", top[0])
	}
}

func TestSummarize(t *testing.T) {
	results := []models.ScanResult{
		scanRow("Acme leads the field.", models.SentimentPositive, `["https://acme.test"]`),
		scanRow("WidgetCo is cheaper.", models.SentimentNegative, `["https://widgetco.example"]`),
	}

	summary := Summarize(results, "Acme", "acme.test", []string{"https://acme.test"}, []string{"WidgetCo"})
	if summary.TotalScans != 2 {
		t.Fatalf("TotalScans = %d", summary.TotalScans)
	}
	if summary.BrandPresencePct != 50 {
		t.Fatalf("BrandPresencePct = %v", summary.BrandPresencePct)
	}
	if summary.Sentiment.Positive != 1 || summary.Sentiment.Negative != 1 {
		t.Fatalf("unexpected sentiment: %+v", summary.Sentiment)
	}
	if summary.OfficialSourcePct != 50 {
		t.Fatalf("OfficialSourcePct = %v", summary.OfficialSourcePct)
	}
}

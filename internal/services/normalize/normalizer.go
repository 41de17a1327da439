package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/models"
)

// Normalizer cleans a RawJob into a canonical Job and computes its dedup
// identity (spec §4.3). HTML-bearing descriptions (common from the External
// adapter's pasted text, and occasionally from scraped sources) are reduced
// to markdown the same way the crawler's content-reduction step does.
type Normalizer struct {
	logger arbor.ILogger
}

func NewNormalizer(logger arbor.ILogger) *Normalizer {
	return &Normalizer{logger: logger}
}

var (
	whitespaceRe  = regexp.MustCompile(`[ \t]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	controlCharRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// maxDescriptionLength bounds the cleaned description before it is ever
// persisted, so an adversarial or oversized raw payload (e.g. a large
// ExtractFromURL fetch) can't grow the jobs table unbounded.
const maxDescriptionLength = 10000

// Normalize produces a Job from a RawJob. It never returns an error for
// merely-messy input; it only fails when the raw job lacks a title, which
// the Job Store's identity and display logic both require.
func (n *Normalizer) Normalize(raw models.RawJob, source models.SourceTag) (*models.Job, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, errEmptyTitle
	}

	description := cleanText(reduceHTML(raw.Description))
	canonicalTitle := canonicalize(title)
	canonicalLocation := canonicalize(raw.Location)

	job := &models.Job{
		Title:             title,
		Company:           strings.TrimSpace(raw.Company),
		Location:          strings.TrimSpace(raw.Location),
		CanonicalLocation: canonicalLocation,
		Description:       description,
		ApplyLink:         strings.TrimSpace(raw.ApplyLink),
		Source:            source,
		SourceID:          strings.TrimSpace(raw.SourceID),
		PostedAt:          raw.PostedAt,
		ScrapedAt:         time.Now().UTC(),
		JobType:           raw.JobType,
		RemoteType:        raw.RemoteType,
		SalaryMin:         raw.SalaryMin,
		SalaryMax:         raw.SalaryMax,
		SalaryCurrency:    raw.SalaryCurrency,
		ExperienceLevel:   raw.ExperienceLevel,
		CanonicalTitle:    canonicalTitle,
	}

	job.Fingerprint = Fingerprint(source, canonicalTitle, job.Company, canonicalLocation)

	return job, nil
}

// Fingerprint is the stable dedup hash used when a source provides no
// SourceID, or as a secondary identity check alongside (Source, SourceID)
// (spec §4.3, §9's dedup-identity resolution).
func Fingerprint(source models.SourceTag, canonicalTitle, company, canonicalLocation string) string {
	key := strings.Join([]string{string(source), canonicalTitle, strings.ToLower(strings.TrimSpace(company)), canonicalLocation}, "|")
	sum := xxhash.Sum64String(key)
	return fmt.Sprintf("%016x", sum)
}

// canonicalize lowercases and strips punctuation, collapsing whitespace, for
// use as a dedup and title-boost comparison key.
func canonicalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// cleanText strips control characters and collapses excess whitespace from
// free-text fields, without altering meaningful content, then bounds the
// result to maxDescriptionLength (spec §4.3's ingest cleanup step 1).
func cleanText(s string) string {
	s = controlCharRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return truncateRunes(s, maxDescriptionLength)
}

// truncateRunes caps s at max runes, respecting UTF-8 boundaries.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// reduceHTML converts HTML-bearing descriptions to markdown; plain-text
// input passes through unchanged since there is no markup to reduce.
// script/style elements are stripped first so they never leak into the
// converted text.
func reduceHTML(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script, style").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return raw
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return raw
	}
	return markdown
}

// Package pricing resolves per-city, per-service base prices used to seed an
// estimate at job-creation time. A missing city or rule means "no suggestion",
// never an error.
package pricing

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Rule is one city/service price entry.
type Rule struct {
	BasePriceCents int64 `json:"base_price_cents"`
	PlatformFeePct int   `json:"platform_fee_pct"`
}

// Source looks up the pricing rule for a city/service pair.
type Source interface {
	Lookup(citySlug, serviceSlug string) (*Rule, bool)
}

type cityFile struct {
	Rules map[string]Rule `json:"rules"`
}

// FileSource loads <dir>/<city_slug>.json files once at startup.
type FileSource struct {
	rules map[string]map[string]Rule
}

// NewFileSource reads every city pricing file under dir. Unreadable or
// malformed files are logged and skipped, so a broken pricing table degrades
// to "no suggestion" instead of blocking startup.
func NewFileSource(dir string) *FileSource {
	src := &FileSource{rules: map[string]map[string]Rule{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Pricing: cannot read directory %s: %v", dir, err)
		return src
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		citySlug := strings.TrimSuffix(entry.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("Pricing: cannot read %s: %v", entry.Name(), err)
			continue
		}
		var cf cityFile
		if err := json.Unmarshal(data, &cf); err != nil {
			log.Printf("Pricing: malformed pricing file %s: %v", entry.Name(), err)
			continue
		}
		src.rules[citySlug] = cf.Rules
	}
	return src
}

var _ Source = (*FileSource)(nil)

// Lookup returns the rule for the pair, or false if the city or service has
// no entry.
func (s *FileSource) Lookup(citySlug, serviceSlug string) (*Rule, bool) {
	cityRules, ok := s.rules[citySlug]
	if !ok {
		return nil, false
	}
	rule, ok := cityRules[serviceSlug]
	if !ok {
		return nil, false
	}
	return &rule, true
}

// StaticSource serves a fixed rule table. Test helper and sandbox default.
type StaticSource struct {
	Rules map[string]map[string]Rule
}

var _ Source = (*StaticSource)(nil)

// Lookup returns the rule for the pair, or false if no entry matches.
func (s *StaticSource) Lookup(citySlug, serviceSlug string) (*Rule, bool) {
	cityRules, ok := s.Rules[citySlug]
	if !ok {
		return nil, false
	}
	rule, ok := cityRules[serviceSlug]
	if !ok {
		return nil, false
	}
	return &rule, true
}

// Split computes the estimate attached to a job: the platform keeps
// PlatformFeePct percent of the base price (floored), the contractor gets the
// remainder. Integer math only.
func (r *Rule) Split() (total, platformCut, contractorCut int64) {
	total = r.BasePriceCents
	platformCut = total * int64(r.PlatformFeePct) / 100
	contractorCut = total - platformCut
	return total, platformCut, contractorCut
}

// String implements fmt.Stringer for log lines.
func (r *Rule) String() string {
	return fmt.Sprintf("base=%d fee=%d%%", r.BasePriceCents, r.PlatformFeePct)
}

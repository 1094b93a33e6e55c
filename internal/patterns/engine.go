// Package patterns mines tag-based behavioral patterns and tag-pair
// correlations from market observation logs.
package patterns

import (
	"math"
	"sort"
	"strings"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/tags"
)

const (
	// MinimumLogs is the floor below which analysis is reported as not
	// yet meaningful.
	MinimumLogs = 15

	// minTagOccurrences is the noise floor: tags seen fewer times are
	// excluded from discoveries (they still count toward denominators).
	minTagOccurrences = 2

	// minPairOccurrences is the co-occurrence floor for correlations.
	minPairOccurrences = 3

	// maxCorrelations caps the correlation list.
	maxCorrelations = 10

	// PairSeparator joins the two tags of a canonical pair key.
	PairSeparator = " + "
)

// tagStats accumulates the per-tag pass.
type tagStats struct {
	occurrences   int
	movements     map[string]int
	sentiments    map[string]int
	sessions      map[string]int
	timeframes    map[string]int
	significances float64 // running mean
}

// pairStats accumulates the per-pair pass.
type pairStats struct {
	occurrences int
	movements   map[string]int
}

// Analyze runs both discovery passes over the logs. Tags are normalized
// and de-duplicated per log before counting so a tag repeated within one
// record is not double-counted for frequency purposes.
func Analyze(logs []*domain.MarketLog) *domain.PatternAnalysis {
	totalLogs := len(logs)

	result := &domain.PatternAnalysis{
		TotalLogs:          totalLogs,
		MinimumForAnalysis: MinimumLogs,
		CanAnalyze:         totalLogs >= MinimumLogs,
		Discoveries:        []domain.TagDiscovery{},
		Correlations:       []domain.TagCorrelation{},
	}
	if !result.CanAnalyze {
		result.NeedsMoreData = MinimumLogs - totalLogs
	}

	perTag := make(map[string]*tagStats)
	perPair := make(map[string]*pairStats)

	for _, log := range logs {
		unique := tags.NormalizeAll(log.Tags)

		significance := log.Significance
		if significance == 0 {
			significance = domain.DefaultSignificance
		}

		for _, tag := range unique {
			ts, ok := perTag[tag]
			if !ok {
				ts = &tagStats{
					movements:  make(map[string]int),
					sentiments: make(map[string]int),
					sessions:   make(map[string]int),
					timeframes: make(map[string]int),
				}
				perTag[tag] = ts
			}
			ts.occurrences++
			tally(ts.movements, log.MovementType)
			tally(ts.sentiments, log.Sentiment)
			tally(ts.sessions, log.Session)
			tally(ts.timeframes, log.Timeframe)
			// Incremental mean: mean += (value - mean) / count.
			ts.significances += (float64(significance) - ts.significances) / float64(ts.occurrences)
		}

		if len(unique) < 2 {
			continue
		}
		for i := 0; i < len(unique); i++ {
			for j := i + 1; j < len(unique); j++ {
				key := pairKey(unique[i], unique[j])
				ps, ok := perPair[key]
				if !ok {
					ps = &pairStats{movements: make(map[string]int)}
					perPair[key] = ps
				}
				ps.occurrences++
				tally(ps.movements, log.MovementType)
			}
		}
	}

	result.Discoveries = shapeDiscoveries(perTag, totalLogs)
	result.Correlations = shapeCorrelations(perPair)

	return result
}

// pairKey forms the canonical unordered pair key: sorted tags joined with
// the pair separator.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + PairSeparator + b
}

func tally(dist map[string]int, value string) {
	if value == "" {
		return
	}
	dist[value]++
}

// shapeDiscoveries converts accumulated tag stats into the sorted,
// noise-filtered discovery list.
func shapeDiscoveries(perTag map[string]*tagStats, totalLogs int) []domain.TagDiscovery {
	discoveries := make([]domain.TagDiscovery, 0, len(perTag))
	for tag, ts := range perTag {
		if ts.occurrences < minTagOccurrences {
			continue
		}
		confidence := 0.0
		if totalLogs > 0 {
			confidence = float64(ts.occurrences) / float64(totalLogs) * 100
		}
		discoveries = append(discoveries, domain.TagDiscovery{
			Tag:                 tag,
			Occurrences:         ts.occurrences,
			Confidence:          round2(confidence),
			DominantMovement:    dominant(ts.movements),
			DominantSentiment:   dominant(ts.sentiments),
			DominantSession:     dominant(ts.sessions),
			DominantTimeframe:   dominant(ts.timeframes),
			AverageSignificance: round2(ts.significances),
			SampleSizeStatus:    sampleSizeStatus(ts.occurrences),
		})
	}

	sort.Slice(discoveries, func(i, j int) bool {
		if discoveries[i].Occurrences != discoveries[j].Occurrences {
			return discoveries[i].Occurrences > discoveries[j].Occurrences
		}
		return discoveries[i].Tag < discoveries[j].Tag
	})

	return discoveries
}

// shapeCorrelations converts accumulated pair stats into the sorted,
// capped correlation list.
func shapeCorrelations(perPair map[string]*pairStats) []domain.TagCorrelation {
	correlations := make([]domain.TagCorrelation, 0, len(perPair))
	for key, ps := range perPair {
		if ps.occurrences < minPairOccurrences {
			continue
		}
		movement, count := dominantWithCount(ps.movements)
		correlations = append(correlations, domain.TagCorrelation{
			Pair:             key,
			Occurrences:      ps.occurrences,
			DominantMovement: movement,
			SuccessRate:      round2(float64(count) / float64(ps.occurrences) * 100),
		})
	}

	sort.Slice(correlations, func(i, j int) bool {
		if correlations[i].Occurrences != correlations[j].Occurrences {
			return correlations[i].Occurrences > correlations[j].Occurrences
		}
		return correlations[i].Pair < correlations[j].Pair
	})

	if len(correlations) > maxCorrelations {
		correlations = correlations[:maxCorrelations]
	}
	return correlations
}

// dominant picks the most frequent value of a distribution; an empty
// distribution reports "Mixed". Ties break lexically for determinism.
func dominant(dist map[string]int) string {
	value, _ := dominantWithCount(dist)
	return value
}

func dominantWithCount(dist map[string]int) (string, int) {
	if len(dist) == 0 {
		return domain.MixedValue, 0
	}

	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	bestCount := 0
	for _, k := range keys {
		if dist[k] > bestCount {
			best = k
			bestCount = dist[k]
		}
	}
	return best, bestCount
}

// sampleSizeStatus classifies how trustworthy a tag's sample is.
func sampleSizeStatus(occurrences int) string {
	switch {
	case occurrences < 5:
		return domain.SampleInsufficient
	case occurrences < 15:
		return domain.SampleMinimal
	case occurrences < 30:
		return domain.SampleAdequate
	default:
		return domain.SampleRobust
	}
}

// SplitPair returns the two tags of a canonical pair key.
func SplitPair(key string) (string, string) {
	parts := strings.SplitN(key, PairSeparator, 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

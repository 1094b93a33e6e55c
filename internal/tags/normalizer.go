// Package tags canonicalizes free-text market log tags.
//
// Users type the same concept a dozen ways ("OB", "order block",
// "orderblock"); analysis needs one canonical form per concept. The alias
// table and common-tag list are immutable package data built once at init.
package tags

import "strings"

// aliases maps shorthand and spelling variants to canonical tags. Both the
// underscored form and the spaced form of a cleaned tag are looked up.
var aliases = map[string]string{
	// ICT price-action concepts
	"ob":          "order_block",
	"order block": "order_block",
	"orderblock":  "order_block",
	"bullish ob":  "bullish_order_block",
	"bearish ob":  "bearish_order_block",

	"fvg":            "fair_value_gap",
	"imbalance":      "fair_value_gap",
	"fair value gap": "fair_value_gap",
	"gap":            "fair_value_gap",

	"bos":                "break_of_structure",
	"break of structure": "break_of_structure",
	"choch":              "change_of_character",
	"ch of ch":           "change_of_character",
	"mss":                "market_structure_shift",

	"breaker":          "breaker_block",
	"brkr":             "breaker_block",
	"mb":               "mitigation_block",
	"mitigation":       "mitigation_block",
	"bpr":              "balanced_price_range",
	"ote":              "optimal_trade_entry",
	"smt":              "smt_divergence",
	"pda":              "pd_array",
	"pd array":         "pd_array",
	"eqh":              "equal_highs",
	"eql":              "equal_lows",
	"sweep":            "liquidity_sweep",
	"lq sweep":         "liquidity_sweep",
	"liq sweep":        "liquidity_sweep",
	"liquidity grab":   "liquidity_sweep",
	"stop hunt":        "liquidity_sweep",
	"inducement":       "inducement",
	"judas":            "judas_swing",
	"po3":              "power_of_three",
	"power of 3":       "power_of_three",
	"turtle soup":      "turtle_soup",
	"silver bullet":    "silver_bullet",
	"sb":               "silver_bullet",
	"htf":              "higher_timeframe",
	"ltf":              "lower_timeframe",
	"premium zone":     "premium",
	"discount zone":    "discount",
	"consolidation":    "ranging",
	"range":            "ranging",
	"accumulation":     "accumulation",
	"manipulation leg": "manipulation",

	// Sessions and kill zones
	"ldn":          "london",
	"london open":  "london",
	"ny":           "new_york",
	"new york":     "new_york",
	"ny open":      "new_york",
	"asia":         "asian_session",
	"asian":        "asian_session",
	"tokyo":        "asian_session",
	"london kz":    "london_killzone",
	"lo kz":        "london_killzone",
	"ny kz":        "new_york_killzone",
	"lunch":        "london_lunch",
	"london close": "london_close",
}

// commonTags is the built-in suggestion vocabulary, unioned after the
// user's own history when suggesting completions.
var commonTags = []string{
	"order_block",
	"fair_value_gap",
	"liquidity_sweep",
	"break_of_structure",
	"change_of_character",
	"market_structure_shift",
	"breaker_block",
	"mitigation_block",
	"balanced_price_range",
	"optimal_trade_entry",
	"smt_divergence",
	"pd_array",
	"equal_highs",
	"equal_lows",
	"inducement",
	"judas_swing",
	"power_of_three",
	"turtle_soup",
	"silver_bullet",
	"premium",
	"discount",
	"ranging",
	"accumulation",
	"manipulation",
	"london_killzone",
	"new_york_killzone",
	"higher_timeframe",
	"lower_timeframe",
}

// MaxSuggestions caps the Suggestions result size.
const MaxSuggestions = 10

// Normalize canonicalizes a single tag: lower-case, trim, collapse
// internal whitespace to single underscores, then resolve aliases. Tags
// with no alias pass through in cleaned form.
func Normalize(tag string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(tag)))
	if len(fields) == 0 {
		return ""
	}
	spaced := strings.Join(fields, " ")
	cleaned := strings.ReplaceAll(spaced, " ", "_")

	if canonical, ok := aliases[cleaned]; ok {
		return canonical
	}
	if canonical, ok := aliases[spaced]; ok {
		return canonical
	}
	return cleaned
}

// NormalizeAll normalizes every tag and de-duplicates the result. Empty
// tags are dropped. Order of the result is unspecified.
func NormalizeAll(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	var result []string
	for _, tag := range tags {
		normalized := Normalize(tag)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

// Suggestions returns up to MaxSuggestions case-insensitive prefix matches
// for the given prefix. The user's history tags take priority: they are
// unioned ahead of the common-tag list before filtering.
func Suggestions(history []string, prefix string) []string {
	p := strings.ToLower(strings.TrimSpace(prefix))

	seen := make(map[string]struct{}, len(history)+len(commonTags))
	var result []string

	add := func(tag string) {
		if len(result) >= MaxSuggestions {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		if p == "" || strings.HasPrefix(strings.ToLower(tag), p) {
			result = append(result, tag)
		}
	}

	for _, tag := range history {
		add(tag)
	}
	for _, tag := range commonTags {
		add(tag)
	}
	return result
}

// CommonTags returns a copy of the built-in suggestion vocabulary.
func CommonTags() []string {
	out := make([]string, len(commonTags))
	copy(out, commonTags)
	return out
}

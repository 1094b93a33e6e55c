package tags

import (
	"sort"
	"strings"
	"testing"
)

func TestNormalize_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OB", "order_block"},
		{"ob", "order_block"},
		{"Order Block", "order_block"},
		{"Order  Block", "order_block"}, // double space collapses
		{"orderblock", "order_block"},
		{"FVG", "fair_value_gap"},
		{"Imbalance", "fair_value_gap"},
		{"fair value gap", "fair_value_gap"},
		{"BOS", "break_of_structure"},
		{"CHoCH", "change_of_character"},
		{"ldn", "london"},
		{"NY Open", "new_york"},
		{"london kz", "london_killzone"},
		{"Silver Bullet", "silver_bullet"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"random_tag", "random_tag"},
		{"Random Tag", "random_tag"},
		{"  spaced   out  tag ", "spaced_out_tag"},
		{"ALLCAPS", "allcaps"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize("   "); got != "" {
		t.Errorf("Normalize(blank) = %q, want empty", got)
	}
}

func TestNormalizeAll_Dedupes(t *testing.T) {
	got := NormalizeAll([]string{"OB", "order block", "FVG", "fvg", "random"})

	// "OB" and "order block" collapse to one tag, both fvg spellings to one.
	// Result order is unspecified; compare as sets.
	sort.Strings(got)
	want := []string{"fair_value_gap", "order_block", "random"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeAll() = %v, want %v", got, want)
			break
		}
	}
}

func TestNormalizeAll_DropsEmpty(t *testing.T) {
	got := NormalizeAll([]string{" ", "", "ob"})
	if len(got) != 1 || got[0] != "order_block" {
		t.Errorf("NormalizeAll() = %v, want [order_block]", got)
	}
}

func TestSuggestions_HistoryFirst(t *testing.T) {
	history := []string{"order_flow_shift", "order_block"}
	got := Suggestions(history, "order")

	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	// History tags are unioned ahead of the common list, so the user's own
	// order_flow_shift outranks common tags with the same prefix.
	if got[0] != "order_flow_shift" {
		t.Errorf("expected history tag first, got %v", got)
	}
	for _, s := range got {
		if !strings.HasPrefix(strings.ToLower(s), "order") {
			t.Errorf("suggestion %q does not match prefix", s)
		}
	}
}

func TestSuggestions_CaseInsensitive(t *testing.T) {
	got := Suggestions(nil, "ORDER")
	found := false
	for _, s := range got {
		if s == "order_block" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected order_block for prefix ORDER, got %v", got)
	}
}

func TestSuggestions_Cap(t *testing.T) {
	// Empty prefix matches everything; result must still be capped.
	var history []string
	for _, c := range "abcdefghijklmnop" {
		history = append(history, "hist_"+string(c))
	}
	got := Suggestions(history, "")
	if len(got) > MaxSuggestions {
		t.Errorf("got %d suggestions, cap is %d", len(got), MaxSuggestions)
	}
}

func TestSuggestions_DedupesHistoryAndCommon(t *testing.T) {
	got := Suggestions([]string{"order_block"}, "order_block")
	count := 0
	for _, s := range got {
		if s == "order_block" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("order_block appeared %d times, want 1", count)
	}
}

package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Feature: nifty-alerts, Property: price formatting produces correct Indian numbering
//
// For any finite value, FormatPrice should:
// 1. Have exactly 2 decimal places
// 2. Use Indian numbering (groups of 2 after the first 3 digits from right)
// 3. Preserve the numeric value when parsed back
func TestPropertyIndianPriceFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("FormatPrice produces valid Indian format", prop.ForAll(
		func(value float64) bool {
			if math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) > 1e12 {
				return true
			}

			formatted := FormatPrice(value)

			numPart := strings.TrimPrefix(formatted, "-")
			parts := strings.Split(numPart, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("expected 2 decimal places for %f, got %s", value, formatted)
				return false
			}
			if !indianPattern.MatchString(parts[0]) {
				t.Logf("invalid Indian grouping for %f: %s", value, formatted)
				return false
			}

			// Round trip: stripping separators recovers the rounded value.
			plain := strings.ReplaceAll(formatted, ",", "")
			parsed, err := strconv.ParseFloat(plain, 64)
			if err != nil {
				t.Logf("unparseable output for %f: %s", value, formatted)
				return false
			}
			return math.Abs(parsed-value) < 0.005+math.Abs(value)*1e-12
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

func TestFormatPriceExamples(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{24512.35, "24,512.35"},
		{100000, "1,00,000.00"},
		{12345678.9, "1,23,45,678.90"},
		{-24512.35, "-24,512.35"},
	}
	for _, c := range cases {
		if got := FormatPrice(c.in); got != c.want {
			t.Errorf("FormatPrice(%f) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(1.234); got != "+1.23%" {
		t.Errorf("FormatPercent(1.234) = %s", got)
	}
	if got := FormatPercent(-0.5); got != "-0.50%" {
		t.Errorf("FormatPercent(-0.5) = %s", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %s", got)
	}
}

func TestFormatVolume(t *testing.T) {
	if got := FormatVolume(1234567); got != "12,34,567" {
		t.Errorf("FormatVolume(1234567) = %s", got)
	}
}

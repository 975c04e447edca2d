// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// FormatPrice formats an index level with Indian digit grouping.
func FormatPrice(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	str := fmt.Sprintf("%.2f", value)
	parts := strings.Split(str, ".")
	result := formatIndianNumber(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatVolume formats a volume count with commas.
func FormatVolume(v int64) string {
	return formatIndianNumber(fmt.Sprintf("%d", v))
}

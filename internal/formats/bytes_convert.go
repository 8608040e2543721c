package formats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	BYTE = 1.0 << (10 * iota)
	KIBIBYTE
	MEBIBYTE
	GIBIBYTE
)

const unknownByteSize = "Unknown size"

// FormatByteSize renders a text-encoded byte count using binary units with one
// decimal place. Empty or non-numeric input renders as "Unknown size".
func FormatByteSize(raw string) string {
	bytes, ok := parseBytes(raw)
	if !ok {
		return unknownByteSize
	}

	switch {
	case bytes >= GIBIBYTE:
		return fmt.Sprintf("%.1f GB", bytes/GIBIBYTE)
	case bytes >= MEBIBYTE:
		return fmt.Sprintf("%.1f MB", bytes/MEBIBYTE)
	case bytes >= KIBIBYTE:
		return fmt.Sprintf("%.1f KB", bytes/KIBIBYTE)
	default:
		return strconv.FormatFloat(bytes, 'f', -1, 64) + " B"
	}
}

func parseBytes(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}

	return value, true
}

// sumSizes adds two text-encoded byte counts. An unusable side counts as 0;
// when neither side is usable the sum is unknown rather than "0".
func sumSizes(left, right string) string {
	l, lok := parseBytes(left)
	r, rok := parseBytes(right)
	if !lok && !rok {
		return UnknownSize
	}

	return strconv.FormatFloat(l+r, 'f', -1, 64)
}

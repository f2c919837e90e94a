package pulse

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSymbols renders symbols as a space separated list of Symbol.String values.
func FormatSymbols(symbols []Symbol) string {
	var b strings.Builder
	for i, s := range symbols {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// ParseSymbols parses the output of FormatSymbols. An empty string yields an
// empty, non-nil slice.
func ParseSymbols(text string) ([]Symbol, error) {
	fields := strings.Fields(text)
	symbols := make([]Symbol, 0, len(fields))
	for i, f := range fields {
		s, err := ParseSymbol(f)
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// ParseSymbol parses a single "level0:duration0,level1:duration1" pair.
func ParseSymbol(text string) (Symbol, error) {
	halves := strings.Split(text, ",")
	if len(halves) != 2 {
		return Symbol{}, fmt.Errorf("invalid symbol %q: expected 2 halves, got %d", text, len(halves))
	}

	level0, duration0, err := parseHalf(halves[0])
	if err != nil {
		return Symbol{}, fmt.Errorf("invalid symbol %q: %w", text, err)
	}
	level1, duration1, err := parseHalf(halves[1])
	if err != nil {
		return Symbol{}, fmt.Errorf("invalid symbol %q: %w", text, err)
	}

	return Symbol{
		Level0:    level0,
		Duration0: duration0,
		Level1:    level1,
		Duration1: duration1,
	}, nil
}

func parseHalf(text string) (bool, uint16, error) {
	level, duration, ok := strings.Cut(text, ":")
	if !ok {
		return false, 0, fmt.Errorf("missing ':' in %q", text)
	}

	var high bool
	switch level {
	case "0":
	case "1":
		high = true
	default:
		return false, 0, fmt.Errorf("invalid level %q", level)
	}

	d, err := strconv.ParseUint(duration, 10, 16)
	if err != nil {
		return false, 0, fmt.Errorf("invalid duration: %w", err)
	}
	if d > MaxDuration {
		return false, 0, fmt.Errorf("duration out of range: %d (max %d)", d, MaxDuration)
	}

	return high, uint16(d), nil
}

package progress

import (
	"regexp"
	"strconv"
	"strings"
)

var rateRegex = regexp.MustCompile(`^([\d.]+)\s*([A-Za-z]+)$`)

// Unit multipliers keyed by exact spelling. "KB" is ambiguous in yt-dlp
// output and is treated as binary; lowercase "kB" is decimal.
var rateUnits = map[string]float64{
	"B":   1,
	"KiB": 1 << 10,
	"KB":  1 << 10,
	"kB":  1e3,
	"MiB": 1 << 20,
	"MB":  1e6,
	"GiB": 1 << 30,
	"GB":  1e9,
	"TiB": 1 << 40,
	"TB":  1e12,
}

// ParseRate converts a transfer-rate token such as "2.1MiB/s" or "1.0 MB/s"
// into bytes per second. Unknown units and malformed input yield 0.
func ParseRate(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/s")
	s = strings.TrimSuffix(s, "ps")

	m := rateRegex.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value < 0 {
		return 0
	}

	unit := m[2]
	mult, ok := rateUnits[unit]
	if !ok {
		// binary prefixes are unambiguous, accept any case ("kib", "MIB")
		if len(unit) == 3 && strings.EqualFold(unit[1:], "ib") {
			mult, ok = rateUnits[strings.ToUpper(unit[:1])+"iB"]
		}
		if !ok {
			return 0
		}
	}
	return value * mult
}

// ParseETA converts "M:SS" or "H:MM:SS" into seconds. Anything else,
// including an empty string, yields 0 (unknown).
func ParseETA(s string) int {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		return 0
	}

	parts := strings.Split(s, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}
}

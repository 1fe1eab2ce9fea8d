package trends

import (
	"strconv"
	"strings"
	"time"
)

var countUnits = [...]string{"", "K", "M", "G", "T", "P", "E"}

// HumanCount compacts a count for axis labels: 999 -> "999",
// 21_100 -> "21.1K", 2_291_301_747 -> "2.2G". Digits past the first decimal
// are truncated, not rounded, and a ".0" decimal is omitted.
func HumanCount(n int64) string {
	if n < 0 {
		if n == -n {
			// MinInt64 has no positive counterpart.
			return strconv.FormatInt(n, 10)
		}
		return "-" + HumanCount(-n)
	}
	if n < 1000 {
		return strconv.FormatInt(n, 10)
	}
	unit, div := 0, int64(1)
	for n/div >= 1000 && unit < len(countUnits)-1 {
		div *= 1000
		unit++
	}
	whole := n / div
	tenth := (n / (div / 10)) % 10
	if tenth == 0 {
		return strconv.FormatInt(whole, 10) + countUnits[unit]
	}
	return strconv.FormatInt(whole, 10) + "." + strconv.FormatInt(tenth, 10) + countUnits[unit]
}

// MonthLabel turns an API month key ("2017-06") into an axis label
// ("Jun 2017").
func MonthLabel(key string) (string, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) < 2 {
		return "", parseErrorf("month %q is not YYYY-MM", key)
	}
	year, month := parts[0], parts[1]
	if _, err := strconv.Atoi(year); err != nil {
		return "", parseErrorf("month %q has a bad year", key)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", parseErrorf("month %q has a bad month", key)
	}
	return time.Month(m).String()[:3] + " " + year, nil
}

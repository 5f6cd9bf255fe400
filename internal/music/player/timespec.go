package player

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timeSpecRegex = regexp.MustCompile(`^([0-9]{1,2})([:ms])(([0-9]{1,2})s?)?$`)

// ParseTimeSpec reads "M:SS", "MmSSs", "Mm" or "Ss".
func ParseTimeSpec(spec string) (time.Duration, error) {
	m := timeSpecRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(spec)))
	if m == nil {
		return 0, ErrInvalidTimeSpec
	}

	first, _ := strconv.Atoi(m[1])
	if m[4] != "" {
		if m[2] == "s" {
			return 0, ErrInvalidTimeSpec
		}
		secs, _ := strconv.Atoi(m[4])
		if secs >= 60 {
			return 0, ErrInvalidTimeSpec
		}
		return time.Duration(first)*time.Minute + time.Duration(secs)*time.Second, nil
	}

	switch m[2] {
	case "m":
		return time.Duration(first) * time.Minute, nil
	case "s":
		return time.Duration(first) * time.Second, nil
	}
	// "M:" with nothing after it
	return 0, ErrInvalidTimeSpec
}

package textutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse MM:SS or HH:MM:SS format into time.Duration.
func ParseDuration(s string) (time.Duration, error) {
	var hh, mm, ss string
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		hh, mm, ss = parts[0], parts[1], parts[2]
	} else if len(parts) == 2 {
		hh, mm, ss = "0", parts[0], parts[1]
	} else {
		return 0, errors.New("invalid HH:MM:SS format")
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errors.New("can't parse hours")
	}
	mins, err := strconv.Atoi(mm)
	if err != nil {
		return 0, errors.New("can't parse minutes")
	}
	secs, err := strconv.Atoi(ss)
	if err != nil {
		return 0, errors.New("can't parse seconds")
	}

	return time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second, nil
}

// FormatCountdown renders seconds as MM:SS, or H:MM:SS past an hour.
// Negative input renders as 00:00.
func FormatCountdown(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatPlace converts a numeric place (1, 2, 3, ...) to a string ("1st", "2nd", "3rd", ...).
func FormatPlace(place int) string {
	suffix := "th"
	if place%100 < 11 || place%100 > 13 {
		switch place % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", place, suffix)
}

// FormatAmount renders minor currency units with thousands separators,
// e.g. 1234567 -> "1,234,567".
func FormatAmount(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var sb strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String()
}

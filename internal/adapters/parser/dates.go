package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	datePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
	timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s?([AaPp][Mm])?$`)

	errBadDate = errors.New("unrecognized date")
	errBadTime = errors.New("unrecognized time")
)

// parseTimestamp собирает момент времени из полей даты и времени заголовка.
// Если первое число больше 12, оно трактуется как день. Иначе сначала
// пробуется порядок месяц/день, затем день/месяц. Неоднозначные даты вида
// 03/04/2024 всегда читаются как 4 марта.
func parseTimestamp(datePart, timePart string, loc *time.Location) (time.Time, error) {
	m := datePattern.FindStringSubmatch(strings.ReplaceAll(datePart, "-", "/"))
	if m == nil {
		return time.Time{}, errBadDate
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year := normalizeYear(m[3])

	hour, minute, second, err := parseClock(timePart)
	if err != nil {
		return time.Time{}, err
	}

	if a > 12 {
		return civilTime(year, b, a, hour, minute, second, loc)
	}
	if ts, err := civilTime(year, a, b, hour, minute, second, loc); err == nil {
		return ts, nil
	}
	return civilTime(year, b, a, hour, minute, second, loc)
}

// normalizeYear раскрывает двузначный год: 00-49 в 2000-е, 50-99 в 1900-е.
func normalizeYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) != 2 {
		return y
	}
	if y < 50 {
		return 2000 + y
	}
	return 1900 + y
}

func parseClock(s string) (hour, minute, second int, err error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, 0, errBadTime
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if minute > 59 || second > 59 {
		return 0, 0, 0, errBadTime
	}

	switch strings.ToLower(m[4]) {
	case "":
		if hour > 23 {
			return 0, 0, 0, errBadTime
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, errBadTime
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, errBadTime
		}
		if hour != 12 {
			hour += 12
		}
	}
	return hour, minute, second, nil
}

// civilTime строит время и отклоняет даты, которые time.Date нормализовал бы
// переносом (например, 31 февраля).
func civilTime(year, month, day, hour, minute, second int, loc *time.Location) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, errBadDate
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
		return time.Time{}, errBadDate
	}
	return ts, nil
}

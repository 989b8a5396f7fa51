package service

import (
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
)

// Dashboard periods.
const (
	PeriodCurrentWeek = "current_week"
	PeriodLastWeek    = "last_week"
	PeriodLastTwo     = "last_two"
	PeriodLastMonth   = "last_month"
	PeriodLastQuarter = "last_quarter"
)

// window is a half-open interval [start, end).
type window struct {
	start time.Time
	end   time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && t.Before(w.end)
}

// periodWindows returns the window for period and the comparison window that
// precedes it. now must already be in the reporting location.
func periodWindows(period string, now time.Time) (cur, prev window, err error) {
	monday := startOfWeek(now)

	switch period {
	case "", PeriodCurrentWeek:
		cur = window{start: monday, end: now}
		prev = window{start: monday.AddDate(0, 0, -7), end: now.AddDate(0, 0, -7)}
	case PeriodLastWeek:
		cur = window{start: monday.AddDate(0, 0, -7), end: monday}
		prev = window{start: monday.AddDate(0, 0, -14), end: cur.start}
	case PeriodLastTwo:
		cur = window{start: monday.AddDate(0, 0, -14), end: monday}
		prev = window{start: monday.AddDate(0, 0, -28), end: cur.start}
	case PeriodLastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		cur = window{start: first.AddDate(0, -1, 0), end: first}
		prev = window{start: first.AddDate(0, -2, 0), end: cur.start}
	case PeriodLastQuarter:
		qMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		first := time.Date(now.Year(), qMonth, 1, 0, 0, 0, 0, now.Location())
		cur = window{start: first.AddDate(0, -3, 0), end: first}
		prev = window{start: first.AddDate(0, -6, 0), end: cur.start}
	default:
		return window{}, window{}, domain.ErrInvalidPeriod
	}
	return cur, prev, nil
}

// normalizePeriod maps the empty period onto current_week.
func normalizePeriod(period string) string {
	if period == "" {
		return PeriodCurrentWeek
	}
	return period
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// trailingDays returns the window covering today and the n-1 days before it, up to now.
func trailingDays(now time.Time, n int) window {
	return window{start: startOfDay(now).AddDate(0, 0, -(n - 1)), end: now.Add(time.Nanosecond)}
}

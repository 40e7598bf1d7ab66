// Package term определяет свойства терминала, в который пишет программа.
package term

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal сообщает, подключен ли файл к терминалу.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width возвращает ширину терминала в колонках или fallback, если f не терминал.
func Width(f *os.File, fallback int) int {
	if !IsTerminal(f) {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Fit распределяет ширину total между колонкой переменной ширины и fixed
// символами остальной таблицы, ограничивая результат отрезком [lo, hi].
func Fit(total, fixed, lo, hi int) int {
	w := total - fixed
	if w < lo {
		return lo
	}
	if w > hi {
		return hi
	}
	return w
}

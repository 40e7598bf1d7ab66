package parser

import "strings"

// lineReplacer убирает управляющие символы направления текста и BOM,
// а неразрывные пробелы (iOS ставит U+202F перед AM/PM) заменяет обычными.
var lineReplacer = strings.NewReplacer(
	"\u200e", "",
	"\u200f", "",
	"\u202a", "",
	"\u202b", "",
	"\u202c", "",
	"\u202d", "",
	"\u202e", "",
	"\u2066", "",
	"\u2067", "",
	"\u2068", "",
	"\u2069", "",
	"\ufeff", "",
	"\u202f", " ",
	"\u00a0", " ",
)

// normalizeLine очищает строку экспорта. Пустой результат означает, что строку нужно пропустить.
func normalizeLine(line string) string {
	return strings.TrimSpace(lineReplacer.Replace(line))
}

// Package lexicon содержит версионированные таблицы констант, которыми
// пользуются парсер и движок агрегации: системные фразы, маркеры вложений,
// ключевые слова тональности и блоки эмодзи.
package lexicon

import "strings"

// Version меняется при любом изменении таблиц, так как от них зависят результаты анализа.
const Version = "2025.1"

// SystemPhrases - фрагменты поля отправителя, по которым строка считается
// служебным событием группы, а не сообщением пользователя.
var SystemPhrases = []string{
	"Messages and calls are end-to-end encrypted",
	"created group",
	"added you",
	" added ",
	" removed ",
	" left",
	"changed the subject",
	"changed this group's icon",
	"changed the group description",
	"disappearing messages",
	"security code changed",
}

// MediaMarkers обозначают вложение, вырезанное при экспорте.
var MediaMarkers = []string{
	"<Media omitted>",
	"image omitted",
	"video omitted",
	"sticker omitted",
	"GIF omitted",
	"audio omitted",
	"document omitted",
}

// DeletedMarkers обозначают удаленное сообщение.
var DeletedMarkers = []string{
	"You deleted this message",
	"This message was deleted",
}

// EditedMarker добавляется к отредактированным сообщениям.
const EditedMarker = "<This message was edited>"

// Punctuation вырезается из текста перед разбиением на слова.
const Punctuation = `.,!?;:"()[]{}*~_`

var (
	positiveWords = newSet("good", "love", "happy", "great", "haha", "lol", "thanks", "best", "awesome", "nice")
	negativeWords = newSet("bad", "sad", "hate", "angry", "no", "sorry", "stupid", "worst", "miss", "boring")
	apologyWords  = newSet("sorry", "maaf", "galti", "apology")
	laughWords    = newSet("haha", "lol", "lmao", "rofl", "hehe", "xd")
)

func newSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsSystemSender сообщает, содержит ли поле отправителя служебную фразу.
func IsSystemSender(sender string) bool {
	for _, phrase := range SystemPhrases {
		if strings.Contains(sender, phrase) {
			return true
		}
	}
	return false
}

// IsMedia сообщает, является ли текст заглушкой вложения.
func IsMedia(content string) bool {
	return containsAny(content, MediaMarkers)
}

// IsDeleted сообщает, является ли текст заглушкой удаленного сообщения.
func IsDeleted(content string) bool {
	return containsAny(content, DeletedMarkers)
}

// IsEdited сообщает, помечено ли сообщение как отредактированное.
func IsEdited(content string) bool {
	return strings.Contains(content, EditedMarker)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsPositive сообщает, входит ли слово в список позитивных.
func IsPositive(word string) bool { return has(positiveWords, word) }

// IsNegative сообщает, входит ли слово в список негативных.
func IsNegative(word string) bool { return has(negativeWords, word) }

// IsApology сообщает, является ли слово извинением.
func IsApology(word string) bool { return has(apologyWords, word) }

// IsLaugh сообщает, является ли слово смехом.
func IsLaugh(word string) bool { return has(laughWords, word) }

func has(set map[string]struct{}, word string) bool {
	_, ok := set[word]
	return ok
}

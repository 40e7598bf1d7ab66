package parser

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/lexicon"
)

var urlRegexp = regexp.MustCompile(`https?://[^\s]+`)

// countLinks считает вхождения URL в строке.
func countLinks(s string) int {
	return len(urlRegexp.FindAllStringIndex(s, -1))
}

// extractWords приводит строку к нижнему регистру, вырезает ссылки и пунктуацию
// и возвращает токены, исключая пустые и состоящие только из эмодзи.
func extractWords(s string) []string {
	text := urlRegexp.ReplaceAllString(strings.ToLower(s), "")
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(lexicon.Punctuation, r) {
			return -1
		}
		return r
	}, text)

	var words []string
	for _, token := range strings.Fields(text) {
		if lexicon.IsEmojiOnly(token) {
			continue
		}
		words = append(words, token)
	}
	return words
}

// draft - сообщение, которое еще может получить строки-продолжения.
type draft struct {
	msg     domain.Message
	content strings.Builder
}

func newDraft(id string, ts time.Time, sender, body string) *draft {
	d := &draft{msg: domain.Message{
		ID:        id,
		Timestamp: ts,
		Sender:    sender,
		IsMedia:   lexicon.IsMedia(body),
		IsDeleted: lexicon.IsDeleted(body),
		IsEdited:  lexicon.IsEdited(body),
	}}
	d.content.WriteString(body)
	d.absorb(body)
	return d
}

// appendLine добавляет строку-продолжение. Разделитель "\n" учитывается в CharCount,
// чтобы счетчик совпадал с длиной итогового Content.
func (d *draft) appendLine(line string) {
	d.content.WriteByte('\n')
	d.msg.CharCount++
	d.content.WriteString(line)
	d.absorb(line)
}

func (d *draft) absorb(line string) {
	words := extractWords(line)
	d.msg.Words = append(d.msg.Words, words...)
	d.msg.WordCount += len(words)
	d.msg.Emojis = append(d.msg.Emojis, lexicon.ExtractEmojis(line)...)
	d.msg.LinkCount += countLinks(line)
	d.msg.CharCount += utf8.RuneCountInString(line)
}

// build фиксирует сообщение. Флаги вложения, удаления и правки берутся только из первой строки.
func (d *draft) build() domain.Message {
	d.msg.Content = d.content.String()
	return d.msg
}

package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/lexicon"
)

var testNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC) // среда

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

var msgSeq int

// newMsg собирает сообщение так же, как его собрал бы парсер для однострочного текста.
func newMsg(sender string, ts time.Time, content string) domain.Message {
	msgSeq++
	var words []string
	for _, w := range strings.Fields(strings.ToLower(content)) {
		if !lexicon.IsEmojiOnly(w) && !strings.Contains(w, "://") {
			words = append(words, w)
		}
	}
	return domain.Message{
		ID:        fmt.Sprintf("m%d", msgSeq),
		Timestamp: ts,
		Sender:    sender,
		Content:   content,
		IsMedia:   lexicon.IsMedia(content),
		IsDeleted: lexicon.IsDeleted(content),
		IsEdited:  lexicon.IsEdited(content),
		LinkCount: strings.Count(content, "http"),
		Emojis:    lexicon.ExtractEmojis(content),
		Words:     words,
		CharCount: utf8.RuneCountInString(content),
		WordCount: len(words),
	}
}

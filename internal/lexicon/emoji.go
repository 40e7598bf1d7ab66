package lexicon

// RuneRange - именованный диапазон кодовых точек.
type RuneRange struct {
	Name string
	Lo   rune
	Hi   rune
}

// EmojiBlocks перечисляет блоки Unicode, символы которых считаются эмодзи.
// Диапазоны частично пересекаются, это не влияет на результат.
var EmojiBlocks = []RuneRange{
	{Name: "pictographs", Lo: 0x1F300, Hi: 0x1F9FF},
	{Name: "emoticons", Lo: 0x1F600, Hi: 0x1F64F},
	{Name: "transport", Lo: 0x1F680, Hi: 0x1F6FF},
	{Name: "misc-symbols", Lo: 0x2600, Hi: 0x26FF},
	{Name: "dingbats", Lo: 0x2700, Hi: 0x27BF},
	{Name: "supplemental", Lo: 0x1F900, Hi: 0x1F9FF},
	{Name: "regional-indicators", Lo: 0x1F1E0, Hi: 0x1F1FF},
	{Name: "mahjong", Lo: 0x1F004, Hi: 0x1F004},
	{Name: "joker", Lo: 0x1F0CF, Hi: 0x1F0CF},
	{Name: "enclosed-alphanumeric-supplement", Lo: 0x1F170, Hi: 0x1F251},
}

const (
	zeroWidthJoiner   = '\u200d'
	variationSelector = '\ufe0f'
)

// IsEmoji сообщает, попадает ли руна в один из блоков эмодзи.
func IsEmoji(r rune) bool {
	for _, b := range EmojiBlocks {
		if r >= b.Lo && r <= b.Hi {
			return true
		}
	}
	return false
}

// ExtractEmojis возвращает все эмодзи строки по порядку, включая повторы.
func ExtractEmojis(s string) []string {
	var out []string
	for _, r := range s {
		if IsEmoji(r) {
			out = append(out, string(r))
		}
	}
	return out
}

// IsEmojiOnly сообщает, состоит ли токен только из эмодзи и склеивающих их
// символов (ZWJ, селектор варианта).
func IsEmojiOnly(token string) bool {
	found := false
	for _, r := range token {
		switch {
		case IsEmoji(r):
			found = true
		case r == zeroWidthJoiner || r == variationSelector:
		default:
			return false
		}
	}
	return found
}

package source

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxEntrySize ограничивает размер распакованного файла экспорта.
const DefaultMaxEntrySize int64 = 64 << 20

var zipSignature = []byte("PK\x03\x04")

// Option настраивает источники данных.
type Option func(*options)

type options struct {
	maxEntrySize int64
}

// WithMaxEntrySize задает предельный размер текстового файла внутри архива.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntrySize = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsArchive сообщает, начинаются ли данные с сигнатуры zip.
func IsArchive(data []byte) bool {
	return bytes.HasPrefix(data, zipSignature)
}

// Decode превращает загруженные байты в текст экспорта в UTF-8: распаковывает
// zip-архив, если это он, и перекодирует текст по BOM.
func Decode(data []byte, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	if IsArchive(data) {
		text, err := extractText(data, o.maxEntrySize)
		if err != nil {
			return nil, err
		}
		data = text
	}
	return decodeText(data)
}

// decodeText учитывает BOM UTF-8 и UTF-16 (LE/BE); без BOM текст считается UTF-8.
// Некорректные последовательности заменяются на U+FFFD.
func decodeText(data []byte) ([]byte, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	return out, nil
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource(t *testing.T) {
	t.Run("nil данные", func(t *testing.T) {
		data, err := NewMemorySource(nil).Fetch()
		assert.EqualError(t, err, "data not set")
		assert.Nil(t, data)
	})

	t.Run("текст с BOM UTF-8", func(t *testing.T) {
		data, err := NewMemorySource([]byte("\xEF\xBB\xBF1/1/24, 10:00 - Alice: hi")).Fetch()
		require.NoError(t, err)
		assert.Equal(t, "1/1/24, 10:00 - Alice: hi", string(data))
	})

	t.Run("исходный срез не изменяется", func(t *testing.T) {
		original := []byte("1/1/24, 10:00 - Alice: hi")
		data, err := NewMemorySource(original).Fetch()
		require.NoError(t, err)

		data[0] = 'X'
		assert.Equal(t, "1/1/24, 10:00 - Alice: hi", string(original))
	})

	t.Run("архив из памяти", func(t *testing.T) {
		archive := buildZip(t, map[string]string{
			"__MACOSX/._chat.txt": "junk",
			"chat.txt":            "1/1/24, 10:00 - Bob: hey",
		})
		data, err := NewMemorySource(archive).Fetch()
		require.NoError(t, err)
		assert.Equal(t, "1/1/24, 10:00 - Bob: hey", string(data))
	})

	t.Run("архив без текстового файла", func(t *testing.T) {
		archive := buildZip(t, map[string]string{"media/photo.jpg": "jpeg"})
		_, err := NewMemorySource(archive).Fetch()
		assert.ErrorIs(t, err, ErrNoTextEntry)
	})
}

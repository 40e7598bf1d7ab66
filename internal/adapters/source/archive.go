package source

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrNoTextEntry возвращается, если в архиве нет файла переписки.
	ErrNoTextEntry = errors.New("no .txt file found in archive")
	// ErrInvalidArchive возвращается для поврежденного zip.
	ErrInvalidArchive = errors.New("invalid zip archive")
	// ErrEntryTooLarge возвращается, если файл переписки превышает допустимый размер.
	ErrEntryTooLarge = errors.New("archive entry is too large")
)

// extractText находит в архиве первый текстовый файл и возвращает его содержимое.
// Каталоги, служебные файлы macOS и AppleDouble-копии пропускаются.
func extractText(data []byte, maxSize int64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	for _, f := range zr.File {
		if !isChatEntry(f) {
			continue
		}
		if f.UncompressedSize64 > uint64(maxSize) {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
		}
		return readEntry(f, maxSize)
	}
	return nil, ErrNoTextEntry
}

func isChatEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() {
		return false
	}
	name := f.Name
	if strings.HasPrefix(name, "__MACOSX/") {
		return false
	}
	if strings.HasPrefix(path.Base(name), "._") {
		return false
	}
	return strings.EqualFold(path.Ext(name), ".txt")
}

func readEntry(f *zip.File, maxSize int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()

	// Заголовок может врать о размере, поэтому чтение тоже ограничено.
	out, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if int64(len(out)) > maxSize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return out, nil
}

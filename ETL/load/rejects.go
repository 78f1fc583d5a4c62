package load

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
)

// RejectsFileName возвращает имя файла отброшенных строк запуска
func RejectsFileName(runID string) string {
	return fmt.Sprintf("rejects_%s.jsonl.sz", runID)
}

// WriteRejects пишет отброшенных кандидатов в dir как JSON lines в кадрах snappy
// и возвращает путь к файлу. При пустом rejected ничего не пишется.
func WriteRejects(dir, runID string, rejected []Rejected) (string, error) {
	if len(rejected) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create rejects directory: %w", err)
	}

	path := filepath.Join(dir, RejectsFileName(runID))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create rejects file: %w", err)
	}
	defer file.Close()

	w := snappy.NewBufferedWriter(file)
	enc := json.NewEncoder(w)
	for _, r := range rejected {
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("write rejected row: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("flush rejects file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close rejects file: %w", err)
	}
	return path, nil
}

// ReadRejects декодирует файл, записанный WriteRejects
func ReadRejects(path string) ([]Rejected, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rejects file: %w", err)
	}
	defer file.Close()

	var rejected []Rejected
	dec := json.NewDecoder(bufio.NewReader(snappy.NewReader(file)))
	for {
		var r Rejected
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode rejected row: %w", err)
		}
		rejected = append(rejected, r)
	}
	return rejected, nil
}

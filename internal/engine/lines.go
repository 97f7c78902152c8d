package engine

import (
	"bufio"
	"errors"
	"io"
	"os"

	"go-fanout/internal/domain"
)

// CountLines counts record boundaries in the file at path. A final line
// without a terminating newline still counts; an empty file has zero lines.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NewError(domain.KindUnreadableFile, "count lines", path, err)
	}
	defer f.Close()

	var (
		n    int
		last byte
		seen bool
		buf  = make([]byte, 32*1024)
	)
	for {
		k, err := f.Read(buf)
		for _, b := range buf[:k] {
			if b == '\n' {
				n++
			}
		}
		if k > 0 {
			last = buf[k-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, domain.NewError(domain.KindUnreadableFile, "count lines", path, err)
		}
	}
	if seen && last != '\n' {
		n++
	}
	return n, nil
}

// lineReader yields lines with their terminators intact.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// Next returns the next line, or io.EOF when there is none left.
func (lr *lineReader) Next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}

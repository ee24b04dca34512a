package runner

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const maxLineBytes = 1024 * 1024

// readLines calls fn for every line in r without its terminator. Lines
// longer than max are cut to max bytes and reading carries on with the next
// line.
func readLines(r io.Reader, max int, fn func([]byte)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var long []byte
	for {
		chunk, err := br.ReadSlice('\n')
		switch {
		case err == nil:
			line := trimEOL(chunk)
			if len(long) > 0 || len(line) > max {
				line = trimEOL(appendCapped(long, line, max))
			}
			fn(line)
			long = nil
		case errors.Is(err, bufio.ErrBufferFull):
			long = appendCapped(long, chunk, max)
		default:
			if len(chunk) > 0 || len(long) > 0 {
				fn(appendCapped(long, trimEOL(chunk), max))
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func appendCapped(dst, src []byte, max int) []byte {
	if room := max - len(dst); len(src) > room {
		if room <= 0 {
			return dst
		}
		src = src[:room]
	}
	return append(dst, src...)
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}

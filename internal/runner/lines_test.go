package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string, max int) []string {
	t.Helper()
	var got []string
	err := readLines(strings.NewReader(input), max, func(line []byte) {
		got = append(got, string(line))
	})
	require.NoError(t, err)
	return got
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  []string
	}{
		{"lf", "a\nb\n", 16, []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", 16, []string{"a", "b"}},
		{"no final newline", "a\nb", 16, []string{"a", "b"}},
		{"empty lines", "\n\nx\n", 16, []string{"", "", "x"}},
		{"over max", "abcdefghij\nDone\n", 4, []string{"abcd", "Done"}},
		{"empty input", "", 16, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(t, tt.input, tt.max))
		})
	}
}

func TestReadLinesPastReaderBuffer(t *testing.T) {
	huge := strings.Repeat("x", 200*1024)
	input := huge + "\r\n" + "Done (1.2s)!\n" + huge + "\n"

	got := collect(t, input, maxLineBytes)
	require.Len(t, got, 3)
	assert.Equal(t, huge, got[0])
	assert.Equal(t, "Done (1.2s)!", got[1])
	assert.Equal(t, huge, got[2])

	got = collect(t, input, 100*1024)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 100*1024)
	assert.Equal(t, "Done (1.2s)!", got[1])
}

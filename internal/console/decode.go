package console

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

type Decoder struct {
	name string
	dec  *encoding.Decoder
}

func NewDecoder(charset string) (*Decoder, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return &Decoder{name: "utf-8"}, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown console encoding %q: %w", charset, err)
	}
	name, _ := htmlindex.Name(enc)
	return &Decoder{name: name, dec: enc.NewDecoder()}, nil
}

func (d *Decoder) Name() string {
	return d.name
}

func (d *Decoder) Decode(raw []byte) string {
	if d.dec == nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	out, err := d.dec.Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(out)
}

func (d *Decoder) Line(raw []byte) string {
	s := d.Decode(raw)
	s = strings.TrimRight(s, "\r\n")
	return Strip(s)
}

// Package charset maps label text to integer codes over a fixed vocabulary
// loaded from a chars file (one character per line).
package charset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/normalize"
)

// ErrUnknownChar is returned when a label holds a character outside the vocabulary.
var ErrUnknownChar = errors.New("character not in vocabulary")

// Blank is the code reserved for the CTC blank; vocabulary codes start at 1.
const Blank = 0

// Converter is deterministic and safe for concurrent use after construction.
type Converter struct {
	chars []rune
	codes map[rune]int
}

// New builds a converter from an ordered character list. Later duplicates
// are ignored so every character keeps its first code.
func New(chars []rune) *Converter {
	c := &Converter{codes: make(map[rune]int, len(chars))}
	for _, r := range chars {
		if _, ok := c.codes[r]; ok {
			continue
		}
		c.chars = append(c.chars, r)
		c.codes[r] = len(c.chars)
	}
	return c
}

// Load reads a chars file from a local path or s3:// URI.
func Load(uri string) (*Converter, error) {
	rc, err := iopkg.OpenReader(uri)
	if err != nil {
		return nil, fmt.Errorf("open chars file: %w", err)
	}
	defer rc.Close()
	return Read(rc)
}

// Read parses one character per line; blank lines are skipped.
func Read(r io.Reader) (*Converter, error) {
	br := bufio.NewReader(r)
	var chars []rune
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			s := normalize.Char(line)
			if s != "" {
				ch, size := utf8.DecodeRuneInString(s)
				if size != len(s) {
					return nil, fmt.Errorf("chars file entry %q: expected one character", s)
				}
				chars = append(chars, ch)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(chars) == 0 {
		return nil, errors.New("chars file is empty")
	}
	return New(chars), nil
}

// Encode maps label to codes in order.
func (c *Converter) Encode(label string) ([]int, error) {
	s, err := normalize.Label(label)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		code, ok := c.codes[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChar, r)
		}
		out = append(out, code)
	}
	return out, nil
}

// Decode is the inverse of Encode; Blank and out-of-range codes are dropped.
func (c *Converter) Decode(codes []int) string {
	buf := make([]rune, 0, len(codes))
	for _, code := range codes {
		if code <= Blank || code > len(c.chars) {
			continue
		}
		buf = append(buf, c.chars[code-1])
	}
	return string(buf)
}

// Chars returns the vocabulary in code order.
func (c *Converter) Chars() []rune {
	out := make([]rune, len(c.chars))
	copy(out, c.chars)
	return out
}

func (c *Converter) Len() int { return len(c.chars) }

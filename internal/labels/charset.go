package labels

import (
	"fmt"
	"strings"
)

// Charset is a character vocabulary: rune i of the alphabet is class i+1.
type Charset struct {
	runes []rune
	index map[rune]int64
}

// NewCharset builds a vocabulary from the distinct runes of alphabet.
func NewCharset(alphabet string) (*Charset, error) {
	c := &Charset{index: make(map[rune]int64)}
	for _, r := range alphabet {
		if _, dup := c.index[r]; dup {
			return nil, fmt.Errorf("charset: duplicate rune %q", r)
		}
		c.runes = append(c.runes, r)
		c.index[r] = int64(len(c.runes))
	}
	if len(c.runes) == 0 {
		return nil, fmt.Errorf("charset: empty alphabet")
	}
	return c, nil
}

// Encode maps every rune of text to its class.
func (c *Charset) Encode(text string) ([]int64, error) {
	out := make([]int64, 0, len(text))
	for _, r := range text {
		k, ok := c.index[r]
		if !ok {
			return nil, fmt.Errorf("charset: rune %q not in alphabet", r)
		}
		out = append(out, k)
	}
	return out, nil
}

// Decode maps classes back to runes. The blank decodes to nothing.
func (c *Charset) Decode(classes []int64) (string, error) {
	var sb strings.Builder
	for _, k := range classes {
		if k == 0 {
			continue
		}
		if k < 0 || k > int64(len(c.runes)) {
			return "", fmt.Errorf("charset: class %d out of range", k)
		}
		sb.WriteRune(c.runes[k-1])
	}
	return sb.String(), nil
}

// NumClasses returns len(alphabet)+1.
func (c *Charset) NumClasses() int {
	return len(c.runes) + 1
}

// Name returns "charset".
func (c *Charset) Name() string {
	return "charset"
}

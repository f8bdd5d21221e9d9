// Package render is a minimal Generator: it samples a random word from a
// charset and draws it on a plain canvas. Visual fidelity is not a goal.
package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math/rand/v2"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/yourorg/textsynth/internal/pipeline"
)

// Corpus draws words of a fixed length from a charset.
type Corpus struct {
	chars  []rune
	length int
}

func NewCorpus(chars []rune, length int) (*Corpus, error) {
	if len(chars) == 0 {
		return nil, errors.New("empty charset")
	}
	if length < 1 {
		return nil, errors.New("word length must be positive")
	}
	return &Corpus{chars: chars, length: length}, nil
}

func (c *Corpus) Sample(rng *rand.Rand) string {
	buf := make([]rune, c.length)
	for i := range buf {
		buf[i] = c.chars[rng.IntN(len(c.chars))]
	}
	return string(buf)
}

type Options struct {
	Width, Height int
	Quality       int
	// Seed fixes the word sequence; nil seeds randomly.
	Seed *uint64
}

// Renderer implements pipeline.Generator.
type Renderer struct {
	corpus *Corpus
	opts   Options
	mu     sync.Mutex
	rng    *rand.Rand
}

func New(c *Corpus, o Options) *Renderer {
	if o.Width <= 0 {
		o.Width = 256
	}
	if o.Height <= 0 {
		o.Height = 32
	}
	if o.Quality <= 0 {
		o.Quality = 90
	}
	var src rand.Source
	if o.Seed != nil {
		src = rand.NewPCG(*o.Seed, uint64(c.length))
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Renderer{corpus: c, opts: o, rng: rand.New(src)}
}

func (r *Renderer) Generate(ctx context.Context, index int64) (pipeline.Sample, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Sample{}, err
	}
	r.mu.Lock()
	word := r.corpus.Sample(r.rng)
	bg := uint8(180 + r.rng.IntN(60))
	r.mu.Unlock()

	img, err := r.draw(word, bg)
	if err != nil {
		return pipeline.Sample{}, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.Quality}); err != nil {
		return pipeline.Sample{}, err
	}
	return pipeline.Sample{Index: index, Artifact: buf.Bytes(), Label: word}, nil
}

func (r *Renderer) draw(word string, bg uint8) (image.Image, error) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	adv := d.MeasureString(word).Ceil()
	if adv == 0 {
		return nil, errors.New("nothing to draw")
	}
	w := max(r.opts.Width, adv+8)
	h := max(r.opts.Height, face.Metrics().Height.Ceil()+4)

	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: bg}}, image.Point{}, draw.Src)
	d.Dst = img
	d.Src = image.Black
	baseline := (h + face.Metrics().Ascent.Ceil() - face.Metrics().Descent.Ceil()) / 2
	d.Dot = fixed.P((w-adv)/2, baseline)
	d.DrawString(word)
	return img, nil
}

// Set builds one renderer per word length in [minLen, maxLen].
func Set(chars []rune, minLen, maxLen int, o Options) ([]pipeline.Generator, error) {
	if maxLen < minLen {
		maxLen = minLen
	}
	var out []pipeline.Generator
	for l := minLen; l <= maxLen; l++ {
		c, err := NewCorpus(chars, l)
		if err != nil {
			return nil, err
		}
		out = append(out, New(c, o))
	}
	return out, nil
}

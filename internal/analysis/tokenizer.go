package analysis

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Morpheme is one unit produced by a morphological analyzer.
type Morpheme struct {
	Surface string
	POS     []string
}

// Segmenter splits text into morphemes with their part-of-speech path.
type Segmenter interface {
	Segment(text string) []Morpheme
}

// KagomeSegmenter segments Japanese text with the IPA dictionary.
type KagomeSegmenter struct {
	t *tokenizer.Tokenizer
}

var _ Segmenter = (*KagomeSegmenter)(nil)

// NewKagomeSegmenter loads the IPA dictionary.
func NewKagomeSegmenter() (*KagomeSegmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome tokenizer: %w", err)
	}
	return &KagomeSegmenter{t: t}, nil
}

// Segment implements Segmenter.
func (s *KagomeSegmenter) Segment(text string) []Morpheme {
	tokens := s.t.Tokenize(text)
	out := make([]Morpheme, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		out = append(out, Morpheme{Surface: tok.Surface, POS: tok.POS()})
	}
	return out
}

const nounPOS = "名詞"

// Secondary noun categories that never carry topic meaning.
var excludedNounKinds = map[string]struct{}{
	"数":    {},
	"非自立":  {},
	"接続詞的": {},
	"接尾":   {},
	"代名詞":  {},
}

// Proper-noun subcategories dropped from the vocabulary.
var excludedProperKinds = map[string]struct{}{
	"組織": {},
	"人名": {},
}

// Tokenizer keeps the content nouns of a text.
type Tokenizer struct {
	segmenter Segmenter
	stopWords map[string]struct{}
}

// NewTokenizer builds a tokenizer over seg with a fixed stop-word set.
func NewTokenizer(seg Segmenter, stopWords []string) *Tokenizer {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}
	return &Tokenizer{segmenter: seg, stopWords: stop}
}

// Tokenize lower-cases text and returns its nouns in order, without stop
// words, numerals, suffixes, pronouns, organization or person names.
func (t *Tokenizer) Tokenize(text string) []string {
	morphemes := t.segmenter.Segment(strings.ToLower(text))

	tokens := make([]string, 0, len(morphemes))
	for _, m := range morphemes {
		surface := strings.TrimSpace(m.Surface)
		if surface == "" {
			continue
		}
		if _, stop := t.stopWords[surface]; stop {
			continue
		}
		if !keepNoun(m.POS) {
			continue
		}
		tokens = append(tokens, surface)
	}
	return tokens
}

func keepNoun(pos []string) bool {
	if len(pos) == 0 || pos[0] != nounPOS {
		return false
	}
	if len(pos) > 1 {
		if _, excluded := excludedNounKinds[pos[1]]; excluded {
			return false
		}
	}
	if len(pos) > 2 {
		if _, excluded := excludedProperKinds[pos[2]]; excluded {
			return false
		}
	}
	return true
}

// Package textgen provides the computation provider: an opaque, blocking,
// CPU-bound text generator. The core treats it as a black box and only ever
// calls it through the offload pool.
package textgen

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

// Generator produces text from a prompt. Implementations are blocking calls
// with no internal concurrency of their own.
type Generator interface {
	Generate(prompt string, temperature float64) (string, error)
}

// Local is a deterministic stand-in for a loaded model: it synthesizes a
// continuation by resampling the prompt's own vocabulary with a
// prompt-seeded source. Same prompt and temperature, same output.
type Local struct {
	// MaxTokens bounds the generated continuation length. Zero means 64.
	MaxTokens int
}

// Generate synthesizes a continuation for prompt. temperature widens the
// sampling window: 0 always picks the most adjacent word, higher values
// roam further through the vocabulary.
func (l *Local) Generate(prompt string, temperature float64) (string, error) {
	if temperature < 0 || temperature > 2 {
		return "", fmt.Errorf("temperature out of range: %v", temperature)
	}
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "", fmt.Errorf("empty prompt")
	}

	maxTokens := l.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	if maxTokens > len(words)*4 {
		maxTokens = len(words) * 4
	}

	h := fnv.New64a()
	h.Write([]byte(prompt))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	window := 1 + int(temperature*float64(len(words)-1)/2)

	var b strings.Builder
	pos := rng.Intn(len(words))
	for i := 0; i < maxTokens; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[pos])
		pos = (pos + 1 + rng.Intn(window)) % len(words)
	}
	return b.String(), nil
}

// CountTokens reports the token count of generated output.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

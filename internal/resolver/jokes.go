package resolver

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

//go:embed jokes.yaml
var defaultJokes []byte

// Joker supplies one joke per call.
type Joker interface {
	Joke() string
}

// JokeBook picks jokes uniformly at random from a fixed list.
type JokeBook struct {
	jokes []string
}

// LoadJokes parses the embedded joke list.
func LoadJokes() (*JokeBook, error) {
	return ParseJokes(defaultJokes)
}

// ParseJokes parses a YAML document with a top-level `jokes:` list.
func ParseJokes(data []byte) (*JokeBook, error) {
	var doc struct {
		Jokes []string `yaml:"jokes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse jokes: %w", err)
	}
	if len(doc.Jokes) == 0 {
		return nil, errors.New("joke list is empty")
	}
	return &JokeBook{jokes: doc.Jokes}, nil
}

// Joke returns a random joke.
func (b *JokeBook) Joke() string {
	return b.jokes[rand.Intn(len(b.jokes))]
}

// Len returns the number of jokes.
func (b *JokeBook) Len() int {
	return len(b.jokes)
}

package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"reddit-insights/services"
)

// LoadLexicon reads a word-sentiment list in the common published format:
// one entry per line, word and signed score separated by a tab. Blank lines
// and lines starting with '#' are skipped.
func LoadLexicon(path string) (services.Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordlists: open lexicon %q: %w", path, err)
	}
	defer f.Close()

	lexicon := make(services.Lexicon)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, scoreText, found := strings.Cut(text, "\t")
		if !found {
			return nil, fmt.Errorf("wordlists: lexicon line %d: no tab separator", line)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(scoreText), 64)
		if err != nil {
			return nil, fmt.Errorf("wordlists: lexicon line %d: bad score %q: %w", line, scoreText, err)
		}
		lexicon[strings.ToLower(strings.TrimSpace(word))] = score
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordlists: read lexicon: %w", err)
	}
	return lexicon, nil
}

// LoadStopwords reads a stopword list: one word per line, '#' comments and
// blank lines skipped.
func LoadStopwords(path string) (services.Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordlists: open stopwords %q: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		words = append(words, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordlists: read stopwords: %w", err)
	}
	return services.NewStopwords(words), nil
}

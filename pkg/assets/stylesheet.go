package assets

import (
	"context"
	"fmt"

	"github.com/gorilla/css/scanner"
)

// Completer resolves once an asset at url is fully applied.
// Complete should return soon after ctx is done: the loader waits for an
// abandoned attempt to return before it tries the next candidate.
type Completer interface {
	Complete(ctx context.Context, url string) error
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, url string) error

func (f CompleterFunc) Complete(ctx context.Context, url string) error { return f(ctx, url) }

// StylesheetCompleter applies a stylesheet: fetched and tokenised without errors.
type StylesheetCompleter struct {
	Fetcher Fetcher
}

func (c *StylesheetCompleter) Complete(ctx context.Context, url string) error {
	body, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return validateStylesheet(string(body))
}

func validateStylesheet(src string) error {
	s := scanner.New(src)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return nil
		case scanner.TokenError:
			return fmt.Errorf("invalid stylesheet at %d:%d: %q", tok.Line, tok.Column, tok.Value)
		}
	}
}

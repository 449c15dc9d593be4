// Package prompt produces writing prompts from a remote quote source with a
// local fallback list.
package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/jotlit/internal/constants"
	jerrors "github.com/julianstephens/jotlit/internal/errors"
)

// maxBodyBytes caps how much of a quote response is read.
const maxBodyBytes = 64 << 10

// Provider fetches one prompt. Errors wrap ErrNetwork or ErrPromptParse.
type Provider interface {
	FetchPrompt(ctx context.Context) (string, error)
}

// QuoteProvider turns a random quote from an HTTP endpoint into a prompt.
type QuoteProvider struct {
	client *http.Client
	url    string
}

func NewQuoteProvider(url string, timeout time.Duration) *QuoteProvider {
	if url == "" {
		url = constants.DefaultPromptURL
	}
	if timeout <= 0 {
		timeout = constants.DefaultPromptTimeout
	}
	return &QuoteProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (p *QuoteProvider) FetchPrompt(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", jerrors.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.Version)

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", jerrors.ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %s", jerrors.ErrNetwork, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", jerrors.ErrNetwork, err)
	}

	q, err := parseQuote(body)
	if err != nil {
		return "", err
	}
	return q.prompt(), nil
}

type quote struct {
	Content string
	Author  string
}

func (q quote) prompt() string {
	return fmt.Sprintf("Write about this idea: \"%s\" - %s", q.Content, q.Author)
}

// rawQuote accepts the field names used by the common free quote APIs.
type rawQuote struct {
	Content string `json:"content"`
	Quote   string `json:"quote"`
	Text    string `json:"text"`
	Q       string `json:"q"`
	Author  string `json:"author"`
	A       string `json:"a"`
}

func parseQuote(body []byte) (quote, error) {
	trimmed := strings.TrimSpace(string(body))

	var raw rawQuote
	if strings.HasPrefix(trimmed, "[") {
		var list []rawQuote
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return quote{}, fmt.Errorf("%w: %v", jerrors.ErrPromptParse, err)
		}
		if len(list) == 0 {
			return quote{}, fmt.Errorf("%w: empty quote list", jerrors.ErrPromptParse)
		}
		raw = list[0]
	} else if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return quote{}, fmt.Errorf("%w: %v", jerrors.ErrPromptParse, err)
	}

	q := quote{
		Content: strings.TrimSpace(firstNonEmpty(raw.Content, raw.Quote, raw.Text, raw.Q)),
		Author:  strings.TrimSpace(firstNonEmpty(raw.Author, raw.A)),
	}
	if q.Content == "" {
		return quote{}, fmt.Errorf("%w: response has no quote text", jerrors.ErrPromptParse)
	}
	if q.Author == "" {
		q.Author = "Unknown"
	}
	return q, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

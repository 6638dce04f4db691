package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

const defaultModel = "claude-sonnet-4-5-20250929"

// ReviewItem is an unclassified line item sent for review.
type ReviewItem struct {
	Row          int     `json:"row"`
	EntryID      string  `json:"entry_id"`
	Description  string  `json:"description"`
	Counterparty string  `json:"counterparty"`
	Amount       float64 `json:"amount"`
}

// ReviewCategory is a category with the keywords that currently select it.
type ReviewCategory struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// ReviewData is the structure sent to the model.
type ReviewData struct {
	Items      []ReviewItem     `json:"items"`
	Categories []ReviewCategory `json:"categories"`
}

// ReviewDecision is the model's suggestion for one row.
type ReviewDecision struct {
	Row       int    `json:"row"`
	Category  string `json:"category"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ReviewResponse is the JSON object the model is asked to return.
type ReviewResponse struct {
	Decisions []ReviewDecision `json:"decisions"`
}

func buildReviewData(items []LineItem, spec *CategorySpec) ReviewData {
	var rd ReviewData
	for _, c := range spec.Categories {
		rd.Categories = append(rd.Categories, ReviewCategory{Name: c.Name, Keywords: c.Keywords})
	}
	for _, it := range items {
		rd.Items = append(rd.Items, ReviewItem{
			Row:          it.Row,
			EntryID:      it.entryLabel(),
			Description:  it.Description,
			Counterparty: it.Counterparty,
			Amount:       it.Amount,
		})
	}
	return rd
}

func buildReviewPrompt(rd ReviewData) (string, error) {
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rd); err != nil {
		return "", errors.Wrap(err, "marshal review data")
	}
	var b strings.Builder
	b.WriteString("You are reviewing line items of an accounting ledger export that matched none of the keyword categories below.\n")
	b.WriteString("For each item pick the single most likely category from the list, or \"none\" if no category fits.\n")
	b.WriteString("Respond with JSON only, in the form {\"decisions\":[{\"row\":<row>,\"category\":\"<name>\",\"reasoning\":\"<short reason>\"}]}.\n\n")
	b.Write(data.Bytes())
	return b.String(), nil
}

// parseReviewResponse extracts the JSON object from the model's text, which
// may be wrapped in a markdown code block.
func parseReviewResponse(text string) (ReviewResponse, error) {
	var resp ReviewResponse
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return resp, errors.Errorf("no JSON found in response: %s", text)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return resp, errors.Wrapf(err, "failed to parse JSON response")
	}
	return resp, nil
}

// reviewHints turns decisions into hints, keeping only rows that were asked
// about and categories that exist.
func reviewHints(resp ReviewResponse, items []LineItem, spec *CategorySpec) []Hint {
	byRow := make(map[int]LineItem, len(items))
	for _, it := range items {
		byRow[it.Row] = it
	}
	known := make(map[string]bool)
	for _, name := range spec.Names() {
		known[name] = true
	}
	var hints []Hint
	for _, d := range resp.Decisions {
		it, has := byRow[d.Row]
		if !has || !known[d.Category] {
			continue
		}
		hints = append(hints, Hint{
			Row:         it.Row,
			EntryID:     it.entryLabel(),
			Description: it.Description,
			Category:    d.Category,
			Source:      "ai",
			Reasoning:   d.Reasoning,
		})
	}
	return hints
}

// aiReview asks Claude for category suggestions for the unclassified items.
// It never changes amounts; its output is printed only.
func aiReview(ctx context.Context, apiKey, model string, items []LineItem, spec *CategorySpec) ([]Hint, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(apiKey) == 0 {
		return nil, errors.New("ANTHROPIC_API_KEY not set. Please set it in environment, .env or config.yaml")
	}
	if len(model) == 0 {
		model = defaultModel
	}

	prompt, err := buildReviewPrompt(buildReviewData(items, spec))
	if err != nil {
		return nil, err
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "claude API call failed")
	}
	if len(message.Content) == 0 {
		return nil, errors.New("empty response from Claude API")
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	resp, err := parseReviewResponse(text.String())
	if err != nil {
		return nil, err
	}
	return reviewHints(resp, items, spec), nil
}

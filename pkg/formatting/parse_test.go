package formatting_test

import (
	"errors"
	"testing"

	"github.com/termstudio/taxon/pkg/formatting"
)

type verdict struct {
	Decision  string  `json:"decision"`
	Rationale string  `json:"rationale"`
	Score     float64 `json:"score"`
}

func TestParse(t *testing.T) {
	t.Run("direct JSON", func(t *testing.T) {
		got, err := formatting.Parse[verdict](`{"decision":"accept","score":0.82}`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.Decision != "accept" || got.Score != 0.82 {
			t.Errorf("Parse = %+v, want {Decision:accept Score:0.82}", got)
		}
	})

	t.Run("direct JSON with whitespace", func(t *testing.T) {
		got, err := formatting.Parse[verdict](`  {"decision":"reject"}  `)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.Decision != "reject" {
			t.Errorf("Decision = %q, want reject", got.Decision)
		}
	})

	t.Run("markdown fenced JSON", func(t *testing.T) {
		input := "```json\n{\"decision\":\"refine\",\"rationale\":\"too close\"}\n```"
		got, err := formatting.Parse[verdict](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.Decision != "refine" || got.Rationale != "too close" {
			t.Errorf("Parse = %+v, want {Decision:refine Rationale:too close}", got)
		}
	})

	t.Run("markdown fenced without language tag", func(t *testing.T) {
		input := "```\n{\"decision\":\"accept\",\"score\":0.5}\n```"
		got, err := formatting.Parse[verdict](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.Decision != "accept" || got.Score != 0.5 {
			t.Errorf("Parse = %+v, want {Decision:accept Score:0.5}", got)
		}
	})

	t.Run("markdown fenced with surrounding text", func(t *testing.T) {
		input := "Here is my assessment:\n```json\n{\"decision\":\"accept\",\"rationale\":\"exact match\"}\n```\nLet me know if you need more detail."
		got, err := formatting.Parse[verdict](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.Decision != "accept" || got.Rationale != "exact match" {
			t.Errorf("Parse = %+v, want {Decision:accept Rationale:exact match}", got)
		}
	})

	t.Run("invalid content returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.Parse[verdict]("the best match is probably Customer Name")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("empty string returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.Parse[verdict]("")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("invalid JSON in code fence returns ErrParseFailed", func(t *testing.T) {
		input := "```json\n{broken\n```"
		_, err := formatting.Parse[verdict](input)
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("parses into map type", func(t *testing.T) {
		got, err := formatting.Parse[map[string]any](`{"decision":"accept"}`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got["decision"] != "accept" {
			t.Errorf("got[decision] = %v, want accept", got["decision"])
		}
	})

	t.Run("parses into slice type", func(t *testing.T) {
		got, err := formatting.Parse[[]string](`["client name","patron name"]`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(got) != 2 || got[0] != "client name" {
			t.Errorf("got = %v, want [client name patron name]", got)
		}
	})
}

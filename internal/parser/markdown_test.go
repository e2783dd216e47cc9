package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsAndParagraphs(t *testing.T) {
	input := "# Title\n\nIntro paragraph.\n\n## Section\n\nSection body."
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Title", "Intro paragraph.", "Section", "Section body."} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q: %q", want, text)
		}
	}
	if strings.Contains(text, "#") {
		t.Errorf("markdown syntax leaked into output: %q", text)
	}
}

func TestMarkdownParser_PlainTextOnly(t *testing.T) {
	input := "Just a paragraph with *emphasis* and `code`."
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "emphasis") || !strings.Contains(text, "code") {
		t.Errorf("inline content lost: %q", text)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty output, got %q", text)
	}
}

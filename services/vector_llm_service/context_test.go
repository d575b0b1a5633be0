package vector_llm_service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jarbasai/jarbas/chat_type"
)

func snippet(source, content string) chat_type.SearchResult {
	return chat_type.SearchResult{
		Content:  content,
		Metadata: map[string]interface{}{"source": source},
	}
}

func TestFormatContext(t *testing.T) {
	results := []chat_type.SearchResult{
		snippet("geografia.pdf", "Paris é a capital da França."),
		snippet("historia.pdf", "A França é um país europeu."),
	}

	out := FormatContext(results, 10000)
	expected := "[Source: geografia.pdf]\nParis é a capital da França.\n\n[Source: historia.pdf]\nA França é um país europeu."
	if out != expected {
		t.Errorf("Unexpected context:\n%s", out)
	}
}

func TestFormatContextEmptyInput(t *testing.T) {
	if out := FormatContext(nil, 1000); out != "" {
		t.Errorf("Expected empty string for empty input, got '%s'", out)
	}
}

func TestFormatContextNeverExceedsBudget(t *testing.T) {
	results := make([]chat_type.SearchResult, 0, 20)
	for i := 0; i < 20; i++ {
		results = append(results, snippet(fmt.Sprintf("doc%d.pdf", i), strings.Repeat("x", 50)))
	}

	for _, budget := range []int{0, 10, 73, 100, 500, 1000} {
		out := FormatContext(results, budget)
		// Budget bounds the sum of block lengths; separators are the only
		// extra and there is one fewer separator than blocks.
		blocks := 0
		if out != "" {
			blocks = len(strings.Split(out, "\n\n"))
		}
		if len(out) > budget+2*blocks {
			t.Errorf("Budget %d exceeded: total length %d with %d blocks", budget, len(out), blocks)
		}
	}
}

func TestFormatContextDropsFromTailOnly(t *testing.T) {
	results := []chat_type.SearchResult{
		snippet("a.pdf", "primeiro"),
		snippet("b.pdf", "segundo"),
		snippet("c.pdf", "terceiro"),
	}

	// Budget fits the first two blocks only.
	first := fmt.Sprintf("[Source: %s]\n%s", "a.pdf", "primeiro")
	second := fmt.Sprintf("[Source: %s]\n%s", "b.pdf", "segundo")
	out := FormatContext(results, len(first)+len(second))

	if !strings.Contains(out, "primeiro") || !strings.Contains(out, "segundo") {
		t.Errorf("Expected the first two snippets to survive, got:\n%s", out)
	}
	if strings.Contains(out, "terceiro") {
		t.Errorf("Expected the third snippet to be dropped, got:\n%s", out)
	}
	if strings.Index(out, "primeiro") > strings.Index(out, "segundo") {
		t.Error("Expected input order to be preserved")
	}
}

func TestFormatContextDropsWholeSnippets(t *testing.T) {
	// 7 snippets whose formatted length exceeds the budget after the 3rd.
	results := make([]chat_type.SearchResult, 0, 7)
	for i := 0; i < 7; i++ {
		results = append(results, snippet("s.pdf", strings.Repeat("y", 100)))
	}
	blockLen := len("[Source: s.pdf]\n") + 100

	out := FormatContext(results, 3*blockLen)
	accepted := strings.Split(out, "\n\n")
	if len(accepted) != 3 {
		t.Errorf("Expected exactly 3 snippets in the context, got %d", len(accepted))
	}
	for _, block := range accepted {
		if len(block) != blockLen {
			t.Errorf("Expected whole blocks only, got block of length %d", len(block))
		}
	}
}

func TestFillPrompt(t *testing.T) {
	prompt := fillPrompt("Contexto: {context}\nPergunta: {question}", "algum contexto", "qual?")
	if prompt != "Contexto: algum contexto\nPergunta: qual?" {
		t.Errorf("Unexpected prompt: '%s'", prompt)
	}
}

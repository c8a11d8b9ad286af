package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

type stubSearcher struct {
	queries []string
	result  []models.Product
	err     error
}

func (s *stubSearcher) SearchProducts(_ context.Context, query string) ([]models.Product, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}

func TestSearchTrimsQuery(t *testing.T) {
	stub := &stubSearcher{result: []models.Product{{ProductID: "P-1", ProductName: "Widget A"}}}
	provider := NewProvider(stub, 0, 0, logger.Nop())

	products, err := provider.Search(context.Background(), "  widget  ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}
	if stub.queries[0] != "widget" {
		t.Fatalf("expected trimmed query, got %q", stub.queries[0])
	}
}

func TestSearchEmptyQueryIsUnfiltered(t *testing.T) {
	stub := &stubSearcher{}
	provider := NewProvider(stub, 10, 1, nil)
	if _, err := provider.Search(context.Background(), ""); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(stub.queries) != 1 || stub.queries[0] != "" {
		t.Fatalf("expected empty query forwarded, got %v", stub.queries)
	}
}

func TestSearchFailureIsRetryable(t *testing.T) {
	stub := &stubSearcher{err: errors.New("boom")}
	provider := NewProvider(stub, 0, 0, logger.Nop())
	_, err := provider.Search(context.Background(), "x")
	if !pkgerrors.IsCode(err, pkgerrors.CodeTransport) || !pkgerrors.IsRetryable(err) {
		t.Fatalf("expected retryable transport error, got %v", err)
	}
}

func TestSearchHonoursCancelledContext(t *testing.T) {
	stub := &stubSearcher{}
	provider := NewProvider(stub, 0.001, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := provider.Search(ctx, "first"); err != nil {
		t.Fatalf("first search should use the burst token: %v", err)
	}
	cancel()
	if _, err := provider.Search(ctx, "second"); err == nil {
		t.Fatalf("expected cancelled wait to fail")
	}
	if len(stub.queries) != 1 {
		t.Fatalf("expected second search not to reach the store, got %v", stub.queries)
	}
}

func TestNormalizeQueryCapsLength(t *testing.T) {
	long := strings.Repeat("a", maxQueryLength+10)
	if got := NormalizeQuery(long); len(got) != maxQueryLength {
		t.Fatalf("expected capped length, got %d", len(got))
	}
}

func TestNormalizeQueryCapsOnRuneBoundary(t *testing.T) {
	q := strings.Repeat("a", maxQueryLength-1) + "éb"
	got := NormalizeQuery(q)
	if !utf8.ValidString(got) {
		t.Fatalf("query split a multi-byte character: %q", got[len(got)-2:])
	}
	if n := utf8.RuneCountInString(got); n != maxQueryLength {
		t.Fatalf("expected %d characters, got %d", maxQueryLength, n)
	}
	if !strings.HasSuffix(got, "é") {
		t.Fatalf("expected the accented character to survive, got suffix %q", got[len(got)-3:])
	}
}

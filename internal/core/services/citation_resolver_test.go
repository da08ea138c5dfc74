package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
)

func TestNormaliseDocumentID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doc-42", "doc-42"},
		{"doc-42.pdf", "doc-42"},
		{"  doc-42.PDF  ", "doc-42"},
		{"uploads/papers/attention.pdf", "attention"},
		{`C:\papers\attention.pdf`, "attention"},
		{"v1.2", "v1.2"},
		{"report.final.pdf", "report.final"},
		{".pdf", ".pdf"},
		{"dir/", "dir"},
		{"", ""},
		{"   ", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormaliseDocumentID(tt.in))
		})
	}
}

func catalogWith(t *testing.T, papers ...domain.RemoteDocument) *Catalog {
	t.Helper()
	c := NewCatalog(&fakePaperClient{papers: papers})
	_, err := c.Sync(t.Context(), "token")
	require.NoError(t, err)
	return c
}

func TestResolveTarget_ChunkPrefixAndStringPage(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-42", Filename: "attention.pdf"})
	parsed := ParseAnswer(`{"answer":"a","citations":[{"chunk_id":"doc-42_c3","page":"7"}]}`)

	target, ok := ResolveTarget(parsed, c)

	require.True(t, ok)
	assert.Equal(t, domain.NavigationTarget{DocumentID: "doc-42", Page: 7}, target)
}

func TestResolveTarget_UnknownDocument(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-42"})
	parsed := ParseAnswer(`{"answer":"a","citations":[{"chunk_id":"doc-99_c1","page":1}]}`)

	_, ok := ResolveTarget(parsed, c)

	assert.False(t, ok)
}

func TestResolveTarget_OnlyFirstCitation(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-2"})
	parsed := domain.ParsedAnswer{Citations: []domain.Citation{
		{ChunkID: "doc-1_c1", Page: 1},
		{ChunkID: "doc-2_c1", Page: 4},
	}}

	_, ok := ResolveTarget(parsed, c)

	assert.False(t, ok, "a later citation must not be used when the first does not resolve")
}

func TestResolveTarget_SourceWinsOverChunkID(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "paper"}, domain.RemoteDocument{ID: "doc-1"})
	parsed := domain.ParsedAnswer{Citations: []domain.Citation{{ChunkID: "doc-1_c1", Source: "paper.pdf", Page: 2}}}

	target, ok := ResolveTarget(parsed, c)

	require.True(t, ok)
	assert.Equal(t, "paper", target.DocumentID)
}

func TestResolveTarget_DefaultsToFirstPage(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-1"})
	for _, page := range []string{`"abc"`, `0`, `null`, `-3`} {
		parsed := ParseAnswer(`{"answer":"a","citations":[{"chunk_id":"doc-1_c2","page":` + page + `}]}`)
		target, ok := ResolveTarget(parsed, c)
		require.True(t, ok, page)
		assert.Equal(t, 1, target.Page, page)
	}
}

func TestResolveTarget_MatchesDisplayName(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "5f1c7e9a", Filename: "Attention Is All You Need.pdf"})
	parsed := domain.ParsedAnswer{Citations: []domain.Citation{{Source: "attention is all you need.pdf", Page: 3}}}

	target, ok := ResolveTarget(parsed, c)

	require.True(t, ok)
	assert.Equal(t, domain.NavigationTarget{DocumentID: "5f1c7e9a", Page: 3}, target)
}

func TestResolveTarget_NoCatalog(t *testing.T) {
	parsed := domain.ParsedAnswer{Citations: []domain.Citation{{ChunkID: "doc-1_c1"}}}
	_, ok := ResolveTarget(parsed, nil)
	assert.False(t, ok)
}

func TestResolveTarget_EmptyToken(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-1"})
	parsed := domain.ParsedAnswer{Citations: []domain.Citation{{ChunkID: "  "}}}
	_, ok := ResolveTarget(parsed, c)
	assert.False(t, ok)
}

func TestSourceName(t *testing.T) {
	c := catalogWith(t, domain.RemoteDocument{ID: "doc-42", Filename: "attention.pdf"})

	assert.Equal(t, "attention.pdf", SourceName(domain.Citation{ChunkID: "doc-42_c1"}, c))
	assert.Equal(t, "attention.pdf", SourceName(domain.Citation{Source: "uploads/doc-42.pdf"}, c))
	assert.Equal(t, "doc-99", SourceName(domain.Citation{ChunkID: "doc-99_c1"}, c))
	assert.Equal(t, "doc-99", SourceName(domain.Citation{ChunkID: "doc-99_c1"}, nil))
}

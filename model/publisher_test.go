package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		alias    string
		expected string
	}{
		{"Acme", "acme.json"},
		{"Acme News", "acme-news.json"},
		{"  Acme   Corp  ", "acme-corp.json"},
		{"ALL CAPS", "all-caps.json"},
		{"", ".json"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, DeriveFilename(tc.alias))
	}
}

func TestPublisherPatch_ToPublisher(t *testing.T) {
	alias := "Acme News"
	active := true
	pages := []Page{{PageType: PageTypeArticle, Selector: ".w", Position: PositionTop}}

	patch := PublisherPatch{
		PublisherID: "p1",
		AliasName:   &alias,
		IsActive:    &active,
		Pages:       &pages,
	}

	pub := patch.ToPublisher()
	require.Equal(t, "p1", pub.PublisherID)
	require.Equal(t, "Acme News", pub.AliasName)
	require.True(t, pub.IsActive)
	require.Equal(t, pages, pub.Pages)

	// Filename derives from alias when absent
	require.Equal(t, "acme-news.json", pub.Filename)

	// Explicit filename is trusted verbatim
	filename := "custom.json"
	patch.Filename = &filename
	require.Equal(t, "custom.json", patch.ToPublisher().Filename)
}

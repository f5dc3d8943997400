package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviegate/postbot/internal/models"
)

func sampleDocument() Document {
	return Document{
		Title:     "Inception",
		PosterURL: "https://img.example/poster.jpg",
		Year:      "2010",
		Language:  "English",
		Links: []models.QualityLink{
			{Quality: "720p", URL: "https://dl.example/a"},
			{Quality: "1080p", URL: "https://dl.example/b"},
		},
		AdRedirectURL:  "https://ads.example/go",
		ClickThreshold: 3,
	}
}

func TestRenderEmbedsGateConfig(t *testing.T) {
	html, err := New().Render(sampleDocument())
	require.NoError(t, err)

	assert.Contains(t, html, `"threshold":3`)
	assert.Contains(t, html, `"adUrl":"https://ads.example/go"`)
	assert.Contains(t, html, "https://dl.example/a")
	assert.Contains(t, html, "https://dl.example/b")
	assert.Contains(t, html, "Steps Completed: 0 / 3")
}

func TestRenderOneButtonPerLink(t *testing.T) {
	html, err := New().Render(sampleDocument())
	require.NoError(t, err)

	assert.Contains(t, html, "Unlock 720p")
	assert.Contains(t, html, "Unlock 1080p")
	assert.Equal(t, 2, strings.Count(html, `class="gate-btn"`))
}

func TestRenderChannels(t *testing.T) {
	doc := sampleDocument()
	doc.Channels = []models.Channel{
		{Name: "Main Channel", URL: "https://t.me/main"},
		{Name: "Backup", URL: "https://t.me/backup"},
	}
	html, err := New().Render(doc)
	require.NoError(t, err)

	assert.Contains(t, html, `href="https://t.me/main"`)
	assert.Contains(t, html, "Main Channel")
	assert.Contains(t, html, "Backup")
}

func TestRenderOmitsMissingPoster(t *testing.T) {
	doc := sampleDocument()
	doc.PosterURL = ""
	html, err := New().Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, html, "<img")

	doc.PosterURL = "https://img.example/poster.jpg"
	html, err = New().Render(doc)
	require.NoError(t, err)
	assert.Contains(t, html, `src="https://img.example/poster.jpg"`)
}

func TestRenderAppliesDefaults(t *testing.T) {
	doc := sampleDocument()
	doc.ClickThreshold = 0
	doc.AdRedirectURL = "   "
	html, err := New().Render(doc)
	require.NoError(t, err)

	assert.Contains(t, html, `"threshold":1`)
	assert.Contains(t, html, `"adUrl":"#"`)
	assert.Contains(t, html, "Steps Completed: 0 / 1")
}

func TestRenderEscapesTitle(t *testing.T) {
	doc := sampleDocument()
	doc.Title = `<script>alert("x")</script>`
	html, err := New().Render(doc)
	require.NoError(t, err)

	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;")
}

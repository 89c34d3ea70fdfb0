package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 25, r.MaxTitleLength)
	assert.Equal(t, 120, r.MaxBulletLength)
	assert.Equal(t, 3, r.MaxBulletLevel)
	assert.Equal(t, 5, r.Recommender.MaxCandidates)
	assert.NoError(t, r.Validate())
}

func TestLoadRulesKeepsDefaults(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
max_title_length: 40
forbidden_words: ["絶対", "guaranteed"]
polisher:
  enabled: true
  executable: /usr/bin/polish
  timeout_sec: 5
`)
	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 40, r.MaxTitleLength)
	assert.Equal(t, 120, r.MaxBulletLength)
	assert.Equal(t, []string{"絶対", "guaranteed"}, r.ForbiddenWords)
	assert.Equal(t, 5*time.Second, r.Polisher.Timeout())
	assert.Equal(t, 12.0, r.Analyzer.MinFontSize)
}

func TestLoadRulesJSON(t *testing.T) {
	path := writeFile(t, "rules.json", `{"max_bullet_level": 2, "recommender": {"ai_weight": 0.25}}`)
	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.MaxBulletLevel)
	assert.Equal(t, 0.25, r.Recommender.AIWeight)
	assert.Equal(t, 5, r.Recommender.MaxCandidates)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = LoadRules(writeFile(t, "bad.yaml", "max_title_length: [1"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = LoadRules(writeFile(t, "range.yaml", "max_bullet_level: 9"))
	assert.ErrorContains(t, err, "max_bullet_level")

	_, err = LoadRules(writeFile(t, "polisher.yaml", "polisher: {enabled: true}"))
	assert.ErrorContains(t, err, "polisher.executable")

	r, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), r)
}

func TestLoadBranding(t *testing.T) {
	path := writeFile(t, "branding.yaml", `
theme:
  heading_font: {name: Meiryo, size_pt: 30}
  colors: {primary: "#112233"}
components:
  chart:
    palette: ["AA0000", "00AA00"]
layouts:
  Title and Content:
    placements:
      sales_table:
        box: {left_in: 1, top_in: 2, width_in: 5, height_in: 3}
        font: {size_pt: 10}
`)
	b, err := LoadBranding(path)
	require.NoError(t, err)
	assert.Equal(t, "Meiryo", b.Theme.HeadingFont.Name)
	assert.Equal(t, 30.0, b.Theme.HeadingFont.SizePt)
	assert.Equal(t, "#112233", b.Theme.Colors.Primary)
	assert.Equal(t, "2E75B6", b.Theme.Colors.Secondary)
	assert.Equal(t, []string{"AA0000", "00AA00"}, b.ChartPalette())

	p, ok := b.Placement("Title and Content", "sales_table")
	require.True(t, ok)
	require.NotNil(t, p.Box)
	assert.Equal(t, 5.0, p.Box.WidthIn)
	assert.Nil(t, p.Paragraph)

	_, ok = b.Placement("Title and Content", "other")
	assert.False(t, ok)
	_, ok = b.Placement("Missing", "sales_table")
	assert.False(t, ok)
}

func TestBrandingValidation(t *testing.T) {
	_, err := LoadBranding(writeFile(t, "b.yaml", `theme: {colors: {accent: "zzz"}}`))
	assert.ErrorContains(t, err, "theme.colors.accent")

	_, err = LoadBranding(writeFile(t, "b.yaml", `components: {table: {fallback_box: {width_in: 0}}}`))
	assert.ErrorContains(t, err, "components.table.fallback_box")

	_, err = LoadBranding(writeFile(t, "b.yaml", `components: {image: {sizing: squash}}`))
	assert.ErrorContains(t, err, "sizing")
}

func TestDefaultChartPalette(t *testing.T) {
	b := DefaultBranding()
	assert.Equal(t, []string{"1F4E79", "2E75B6", "F39C12"}, b.ChartPalette())
	assert.NoError(t, b.Validate())
}

func TestLoadEnv(t *testing.T) {
	env := map[string]string{
		"PPTX_LLM_PROVIDER":        "OpenAI",
		"OPENAI_API_KEY":           "sk-test",
		"GOOGLE_API_KEY":           "g-key",
		"PPTXGEN_SKIP_PDF_CONVERT": "true",
		"PPTX_LLM_TIMEOUT":         "7",
		"CONTENT_STORE_DIR":        "/data/content",
	}
	e := LoadEnvFrom(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "openai", e.LLMProvider)
	assert.Equal(t, "sk-test", e.OpenAIAPIKey)
	assert.Equal(t, "g-key", e.GeminiAPIKey)
	assert.True(t, e.SkipPDFConvert)
	assert.Equal(t, 7*time.Second, e.LLMTimeout)
	assert.Equal(t, "/data/content", e.ContentStoreDir)
	assert.Equal(t, DefaultLibreOffice, e.LibreOfficePath)
	assert.Equal(t, DefaultOpenAIModel, e.OpenAIModel)
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("PPTX_LLM_PROVIDER", "")
	t.Setenv("PPTXGEN_SKIP_PDF_CONVERT", "0")
	t.Setenv("PPTX_LLM_TIMEOUT", "1m")
	e := LoadEnv()
	assert.Equal(t, DefaultLLMProvider, e.LLMProvider)
	assert.False(t, e.SkipPDFConvert)
	assert.Equal(t, time.Minute, e.LLMTimeout)
}

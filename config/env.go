package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env holds the environment settings of the pipeline.
type Env struct {
	ContentAPIToken string
	DraftAPIToken   string
	BriefStoreDir   string
	ContentStoreDir string
	DraftStoreDir   string

	// LLMProvider selects the layout classifier: mock, openai or gemini.
	LLMProvider   string
	LLMTimeout    time.Duration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	SkipPDFConvert  bool
	LibreOfficePath string
}

// Defaults applied when a variable is unset.
const (
	DefaultLLMProvider   = "mock"
	DefaultLLMTimeout    = 20 * time.Second
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultLibreOffice   = "soffice"
)

// LoadEnv reads the process environment.
func LoadEnv() Env {
	return LoadEnvFrom(os.LookupEnv)
}

// LoadEnvFrom reads settings through lookup.
func LoadEnvFrom(lookup func(string) (string, bool)) Env {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	e := Env{
		ContentAPIToken: get("CONTENT_API_TOKEN", ""),
		DraftAPIToken:   get("DRAFT_API_TOKEN", ""),
		BriefStoreDir:   get("BRIEF_STORE_DIR", ""),
		ContentStoreDir: get("CONTENT_STORE_DIR", ""),
		DraftStoreDir:   get("DRAFT_STORE_DIR", ""),
		LLMProvider:     strings.ToLower(get("PPTX_LLM_PROVIDER", DefaultLLMProvider)),
		LLMTimeout:      DefaultLLMTimeout,
		OpenAIAPIKey:    get("OPENAI_API_KEY", ""),
		OpenAIModel:     get("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:   get("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		GeminiAPIKey:    get("GEMINI_API_KEY", get("GOOGLE_API_KEY", "")),
		GeminiModel:     get("GEMINI_MODEL", DefaultGeminiModel),
		SkipPDFConvert:  truthy(get("PPTXGEN_SKIP_PDF_CONVERT", "")),
		LibreOfficePath: get("LIBREOFFICE_PATH", DefaultLibreOffice),
	}
	if v := get("PPTX_LLM_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			e.LLMTimeout = d
		} else if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			e.LLMTimeout = time.Duration(secs * float64(time.Second))
		}
	}
	return e
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

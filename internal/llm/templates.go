package llm

import (
	"fmt"
	"strings"

	"github.com/shopscene/studio/internal/prompt"
)

// expandInstruction builds the full text for the expansion call: the
// system instruction followed by the filled user template.
func expandInstruction(cfg *Config, basePrompt, customContext string) string {
	system := cfg.ExpandSystemTemplate
	if system == "" {
		system = prompt.DefaultExpandSystem
	}
	user := cfg.ExpandUserTemplate
	if user == "" {
		user = prompt.DefaultExpandUser
	}
	filled := prompt.Fill(user, map[string]string{
		"basePrompt":    basePrompt,
		"customContext": customContext,
	})
	return system + "\n\n" + filled
}

// generateInstruction builds the multimodal generation instruction from the
// configured (or default) template, appending the quality suffix line when
// a style tag is set.
func generateInstruction(cfg *Config, expandedPrompt string, opts *GenerateOptions) string {
	tpl := cfg.GenerateTemplate
	if tpl == "" {
		tpl = prompt.DefaultGenerate
	}
	instruction := prompt.Fill(tpl, map[string]string{"prompt": expandedPrompt})
	if opts != nil && opts.Quality != "" {
		instruction += "\n" + prompt.QualitySuffix + opts.Quality
	}
	return instruction
}

// fallbackExpansion synthesizes a generic expanded prompt when the model
// returns no usable text.
func fallbackExpansion(basePrompt string) string {
	return fmt.Sprintf("A professional commercial product photograph: %s. Natural lighting, realistic composition, sharp focus on the product.", strings.TrimSpace(basePrompt))
}

// fallbackScenarios returns a fresh copy of the fixed recommendation
// fallback list so callers cannot mutate the shared slice.
func fallbackScenarios() []string {
	out := make([]string, len(prompt.FallbackScenarios))
	copy(out, prompt.FallbackScenarios)
	return out
}

// mimeFromDataURL returns the MIME type declared by a data URL, or the
// fallback when the value is bare base64.
func mimeFromDataURL(value, fallback string) string {
	if !strings.HasPrefix(value, "data:") {
		return fallback
	}
	rest := value[len("data:"):]
	if idx := strings.IndexByte(rest, ';'); idx > 0 {
		return rest[:idx]
	}
	return fallback
}

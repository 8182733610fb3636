package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	gogenai "github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/prompt"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/option"
	unifiedgenai "google.golang.org/genai"
)

// GeminiService targets the Gemini API directly: langchaingo for the text
// expansion call, the unified genai SDK for strict IMAGE-modality
// generation and inpainting, and the generative-ai-go SDK for the
// vision-based recommendation call.
type GeminiService struct {
	cfg    *Config
	apiKey string

	llmText       llms.Model
	unifiedClient *unifiedgenai.Client
	visionClient  *gogenai.Client
}

// NewGeminiService creates the Gemini adapter. Clients are initialized
// eagerly; a missing credential leaves them nil and the adapter unavailable.
func NewGeminiService(cfg *Config) *GeminiService {
	s := &GeminiService{
		cfg:    cfg,
		apiKey: resolveGeminiKey(cfg),
	}
	if s.apiKey == "" {
		log.Warn().Msg("Gemini adapter created without credential")
		return s
	}

	llmText, err := googleai.New(context.Background(),
		googleai.WithAPIKey(s.apiKey),
		googleai.WithDefaultModel(cfg.ModelText),
	)
	if err != nil {
		log.Error().Err(err).Str("model", cfg.ModelText).Msg("Failed to initialize expansion model")
	}
	s.llmText = llmText

	unifiedClient, err := unifiedgenai.NewClient(context.Background(), &unifiedgenai.ClientConfig{APIKey: s.apiKey})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize genai client for image generation")
	}
	s.unifiedClient = unifiedClient

	visionClient, err := gogenai.NewClient(context.Background(), option.WithAPIKey(s.apiKey))
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize genai client for recommendations")
	}
	s.visionClient = visionClient

	log.Info().
		Str("model_text", cfg.ModelText).
		Str("model_image", cfg.ModelImage).
		Str("model_vision", cfg.ModelVision).
		Msg("Gemini adapter initialized")
	return s
}

// resolveGeminiKey resolves the credential: explicit config value, else the
// GEMINI_API_KEY environment fallback, else empty (unavailable).
func resolveGeminiKey(cfg *Config) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

func (s *GeminiService) Provider() string {
	return ProviderGemini
}

func (s *GeminiService) Available() bool {
	return s.apiKey != ""
}

// ExpandPrompt sends one text-generation request and returns the response
// verbatim, falling back to a synthesized sentence when the model returns
// no usable text.
func (s *GeminiService) ExpandPrompt(ctx context.Context, basePrompt, customContext string) (string, error) {
	if !s.Available() || s.llmText == nil {
		return "", &ConfigurationError{Provider: ProviderGemini}
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, s.llmText, expandInstruction(s.cfg, basePrompt, customContext),
		llms.WithTemperature(0.8),
		llms.WithMaxTokens(400),
	)
	if err != nil {
		return "", &GenerationError{Op: "prompt expansion", Err: err}
	}

	expanded := strings.TrimSpace(response)
	if expanded == "" {
		log.Warn().Msg("Gemini returned empty expansion, using fallback sentence")
		return fallbackExpansion(basePrompt), nil
	}
	return expanded, nil
}

// GenerateImage sends one multimodal request with strict IMAGE modality and
// returns the first image payload found in the response as a data URL.
func (s *GeminiService) GenerateImage(ctx context.Context, imageBase64, expandedPrompt string, opts *GenerateOptions) (string, error) {
	if !s.Available() || s.unifiedClient == nil {
		return "", &ConfigurationError{Provider: ProviderGemini}
	}

	imageBlob, err := decodeImagePart(imageBase64)
	if err != nil {
		return "", &GenerationError{Op: "image generation", Err: err}
	}

	contents := []*unifiedgenai.Content{{
		Role: "user",
		Parts: []*unifiedgenai.Part{
			{Text: generateInstruction(s.cfg, expandedPrompt, opts)},
			{InlineData: imageBlob},
		},
	}}
	genCfg := &unifiedgenai.GenerateContentConfig{ResponseModalities: []string{"IMAGE"}}

	resp, err := s.unifiedClient.Models.GenerateContent(ctx, s.cfg.ModelImage, contents, genCfg)
	if err != nil {
		return "", &GenerationError{Op: "image generation", Err: err}
	}

	return scanUnifiedResponse(resp, maxDiagnosticTextBytes)
}

// RecommendScenarios asks the vision model for exactly 3 scene
// descriptions. Any call or parse failure yields the fixed fallback list.
func (s *GeminiService) RecommendScenarios(ctx context.Context, imageBase64 string) ([]string, error) {
	if !s.Available() || s.visionClient == nil {
		log.Warn().Msg("Recommendation requested without credential, using fallback scenarios")
		return fallbackScenarios(), nil
	}

	raw, err := base64.StdEncoding.DecodeString(StripDataURLPrefix(imageBase64))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid image payload for recommendation, using fallback scenarios")
		return fallbackScenarios(), nil
	}

	model := s.visionClient.GenerativeModel(s.cfg.ModelVision)
	resp, err := model.GenerateContent(ctx,
		gogenai.Blob{MIMEType: mimeFromDataURL(imageBase64, "image/png"), Data: raw},
		gogenai.Text(prompt.RecommendInstruction),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Recommendation call failed, using fallback scenarios")
		return fallbackScenarios(), nil
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(gogenai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	scenarios, ok := extractStringArray(text.String())
	if !ok {
		log.Warn().Str("response", snippet(text.String(), 200)).Msg("Unparsable recommendation response, using fallback scenarios")
		return fallbackScenarios(), nil
	}
	return scenarios, nil
}

// EditImage sends the image and mask with an inpainting instruction; the
// mask's white region is the area to modify.
func (s *GeminiService) EditImage(ctx context.Context, imageBase64, maskBase64, instruction string) (string, error) {
	if !s.Available() || s.unifiedClient == nil {
		return "", &ConfigurationError{Provider: ProviderGemini}
	}

	imageBlob, err := decodeImagePart(imageBase64)
	if err != nil {
		return "", &GenerationError{Op: "image edit", Err: err}
	}
	maskBlob, err := decodeImagePart(maskBase64)
	if err != nil {
		return "", &GenerationError{Op: "image edit", Err: err}
	}

	contents := []*unifiedgenai.Content{{
		Role: "user",
		Parts: []*unifiedgenai.Part{
			{Text: prompt.EditInstruction + instruction},
			{InlineData: imageBlob},
			{InlineData: maskBlob},
		},
	}}
	genCfg := &unifiedgenai.GenerateContentConfig{ResponseModalities: []string{"IMAGE"}}

	resp, err := s.unifiedClient.Models.GenerateContent(ctx, s.cfg.ModelImage, contents, genCfg)
	if err != nil {
		return "", &GenerationError{Op: "image edit", Err: err}
	}

	return scanUnifiedResponse(resp, maxDiagnosticTextBytes)
}

// decodeImagePart strips a data-URL prefix and decodes the base64 payload
// into an inline blob for the unified SDK. The SDK takes inline bytes only,
// so remote URLs are rejected rather than silently producing garbage.
func decodeImagePart(value string) (*unifiedgenai.Blob, error) {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return nil, fmt.Errorf("remote image URL cannot be sent as an inline payload: %s", value)
	}
	raw, err := base64.StdEncoding.DecodeString(StripDataURLPrefix(value))
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return &unifiedgenai.Blob{
		MIMEType: mimeFromDataURL(value, "image/png"),
		Data:     raw,
	}, nil
}

// scanUnifiedResponse locates the first image payload in a unified-SDK
// response: inline blobs across all candidates first, then image references
// embedded in returned text. textLimit caps the diagnostic snippet when no
// image is found.
func scanUnifiedResponse(resp *unifiedgenai.GenerateContentResponse, textLimit int) (string, error) {
	var texts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
			}
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}

	if ref := firstImageInTexts(texts); ref != "" {
		return ref, nil
	}
	return "", &NoImageReturnedError{Text: snippet(strings.Join(texts, " "), textLimit)}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/prompt"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterService targets an OpenAI-compatible chat-completions endpoint
// that supports inline image content and image output attachments.
type OpenRouterService struct {
	cfg        *Config
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouterService creates the chat-completions adapter.
func NewOpenRouterService(cfg *Config) *OpenRouterService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &OpenRouterService{
		cfg:        cfg,
		apiKey:     resolveOpenRouterKey(cfg),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// resolveOpenRouterKey resolves the credential: explicit config value, else
// the OPENROUTER_API_KEY environment fallback, else empty (unavailable).
func resolveOpenRouterKey(cfg *Config) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

func (s *OpenRouterService) Provider() string {
	return ProviderOpenRouter
}

func (s *OpenRouterService) Available() bool {
	return s.apiKey != ""
}

func (s *OpenRouterService) ExpandPrompt(ctx context.Context, basePrompt, customContext string) (string, error) {
	if !s.Available() {
		return "", &ConfigurationError{Provider: ProviderOpenRouter}
	}

	resp, err := s.chatCompletion(ctx, chatRequest{
		Model: s.cfg.ModelText,
		Messages: []chatMessage{
			{Role: "user", Content: expandInstruction(s.cfg, basePrompt, customContext)},
		},
	})
	if err != nil {
		return "", &GenerationError{Op: "prompt expansion", Err: err}
	}

	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	log.Warn().Msg("OpenRouter returned empty expansion, using fallback sentence")
	return fallbackExpansion(basePrompt), nil
}

func (s *OpenRouterService) GenerateImage(ctx context.Context, imageBase64, expandedPrompt string, opts *GenerateOptions) (string, error) {
	if !s.Available() {
		return "", &ConfigurationError{Provider: ProviderOpenRouter}
	}

	resp, err := s.chatCompletion(ctx, chatRequest{
		Model:      s.cfg.ModelImage,
		Modalities: []string{"image", "text"},
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: generateInstruction(s.cfg, expandedPrompt, opts)},
				{Type: "image_url", ImageURL: &imageRef{URL: toDataURL(imageBase64)}},
			},
		}},
	})
	if err != nil {
		return "", &GenerationError{Op: "image generation", Err: err}
	}

	return scanChatResponse(resp, 200)
}

func (s *OpenRouterService) RecommendScenarios(ctx context.Context, imageBase64 string) ([]string, error) {
	if !s.Available() {
		log.Warn().Msg("Recommendation requested without credential, using fallback scenarios")
		return fallbackScenarios(), nil
	}

	resp, err := s.chatCompletion(ctx, chatRequest{
		Model: s.cfg.ModelVision,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt.RecommendInstruction},
				{Type: "image_url", ImageURL: &imageRef{URL: toDataURL(imageBase64)}},
			},
		}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Recommendation call failed, using fallback scenarios")
		return fallbackScenarios(), nil
	}

	var text strings.Builder
	for _, choice := range resp.Choices {
		text.WriteString(choice.Message.Content)
	}
	scenarios, ok := extractStringArray(text.String())
	if !ok {
		log.Warn().Str("response", snippet(text.String(), 200)).Msg("Unparsable recommendation response, using fallback scenarios")
		return fallbackScenarios(), nil
	}
	return scenarios, nil
}

func (s *OpenRouterService) EditImage(ctx context.Context, imageBase64, maskBase64, instruction string) (string, error) {
	if !s.Available() {
		return "", &ConfigurationError{Provider: ProviderOpenRouter}
	}

	resp, err := s.chatCompletion(ctx, chatRequest{
		Model:      s.cfg.ModelImage,
		Modalities: []string{"image", "text"},
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt.EditInstruction + instruction},
				{Type: "image_url", ImageURL: &imageRef{URL: toDataURL(imageBase64)}},
				{Type: "image_url", ImageURL: &imageRef{URL: toDataURL(maskBase64)}},
			},
		}},
	})
	if err != nil {
		return "", &GenerationError{Op: "image edit", Err: err}
	}

	return scanChatResponse(resp, maxDiagnosticTextBytes)
}

// chatCompletion performs one POST to /chat/completions. A non-2xx status
// or an error payload in a 2xx body both count as upstream failures.
func (s *OpenRouterService) chatCompletion(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode >= 400 {
		return nil, fmt.Errorf("chat completions %s: %s", httpResp.Status, snippet(string(rawBody), 200))
	}

	var decoded chatResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("chat completions error: %s", decoded.Error.Message)
	}
	return &decoded, nil
}

// scanChatResponse locates the first image payload in a chat-completions
// response. Structured image attachments across all choices are checked
// before any text-embedded reference, so a URL-looking fragment in an
// earlier choice cannot shadow a real attachment in a later one.
func scanChatResponse(resp *chatResponse, textLimit int) (string, error) {
	for _, choice := range resp.Choices {
		for _, img := range choice.Message.Images {
			if img.ImageURL.URL != "" {
				return img.ImageURL.URL, nil
			}
		}
	}

	texts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice.Message.Content != "" {
			texts = append(texts, choice.Message.Content)
		}
	}
	if ref := firstImageInTexts(texts); ref != "" {
		return ref, nil
	}
	return "", &NoImageReturnedError{Text: snippet(strings.Join(texts, " "), textLimit)}
}

// toDataURL normalizes an image payload for an image_url content part.
// Data URLs and remote URLs pass through unchanged; bare base64 is wrapped.
func toDataURL(value string) string {
	if strings.HasPrefix(value, "data:") || strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "data:image/png;base64," + value
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

// chatMessage content is either a plain string or a []contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Role    string            `json:"role"`
	Content string            `json:"content"`
	Images  []imageAttachment `json:"images,omitempty"`
}

type imageAttachment struct {
	Type     string   `json:"type"`
	ImageURL imageRef `json:"image_url"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopscene/studio/internal/llm"
	"github.com/shopscene/studio/internal/models"
	"github.com/shopscene/studio/internal/store"
)

// ErrBusy is returned when an operation is requested while another one is
// running. Only one of recommend, generate, or edit runs at a time.
var ErrBusy = errors.New("another operation is already running")

// genericErrorMessage is the user-facing message for any mid-batch failure;
// the underlying error goes to the log, not the banner.
const genericErrorMessage = "Something went wrong during generation. Please try again."

// AdapterSource resolves a provider id to a service adapter. Satisfied by
// llm.Factory.
type AdapterSource interface {
	Get(provider string) (llm.Service, error)
}

// Remover is the external background-removal collaborator.
type Remover interface {
	Available() bool
	Remove(ctx context.Context, image string) (string, error)
}

// Pipeline owns the single ProcessingState value and runs the sequential
// expand-then-generate batch loop. State transitions are published to
// subscribers.
//
// The expansion and image providers are fixed per call-site rather than
// per preset; only the scenario varies across loop iterations.
type Pipeline struct {
	adapters AdapterSource
	presets  *store.PresetStore
	results  *store.ResultStore
	remover  Remover

	expansionProvider string
	imageProvider     string
	resetDelay        time.Duration

	mu            sync.Mutex
	state         models.ProcessingState
	originalImage string // last uploaded product photo, kept for editing
	subscribers   map[int]chan models.ProcessingState
	nextSubID     int
}

// New creates a pipeline in the idle state.
func New(adapters AdapterSource, presets *store.PresetStore, results *store.ResultStore, remover Remover, expansionProvider, imageProvider string, resetDelay time.Duration) *Pipeline {
	return &Pipeline{
		adapters:          adapters,
		presets:           presets,
		results:           results,
		remover:           remover,
		expansionProvider: expansionProvider,
		imageProvider:     imageProvider,
		resetDelay:        resetDelay,
		state:             models.ProcessingState{Phase: models.PhaseIdle},
		subscribers:       make(map[int]chan models.ProcessingState),
	}
}

// State returns the current processing state.
func (p *Pipeline) State() models.ProcessingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OriginalImage returns the unprocessed product photo from the most recent
// batch (preserved even when background removal ran).
func (p *Pipeline) OriginalImage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.originalImage
}

// Subscribe registers a state-transition listener. The returned cancel
// function must be called to release it. Slow listeners drop transitions
// rather than blocking the pipeline.
func (p *Pipeline) Subscribe() (<-chan models.ProcessingState, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	ch := make(chan models.ProcessingState, 16)
	p.subscribers[id] = ch
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subscribers[id]; ok {
			delete(p.subscribers, id)
			close(ch)
		}
	}
}

// claim atomically checks that no operation is running and enters the given
// phase. Returns ErrBusy otherwise.
func (p *Pipeline) claim(phase models.Phase, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.Idle() {
		return ErrBusy
	}
	p.setStateLocked(phase, message)
	return nil
}

func (p *Pipeline) setState(phase models.Phase, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setStateLocked(phase, message)
}

func (p *Pipeline) setStateLocked(phase models.Phase, message string) {
	p.state = models.ProcessingState{Phase: phase, Message: message}
	for _, ch := range p.subscribers {
		select {
		case ch <- p.state:
		default:
		}
	}
}

// scheduleReset reverts COMPLETED to IDLE after the display delay, unless a
// new operation has started in the meantime.
func (p *Pipeline) scheduleReset() {
	time.AfterFunc(p.resetDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state.Phase == models.PhaseCompleted {
			p.setStateLocked(models.PhaseIdle, "")
		}
	})
}

// fail logs the cause, enters the error state with the generic user-facing
// message, and returns the cause.
func (p *Pipeline) fail(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("Pipeline operation failed")
	p.setState(models.PhaseError, genericErrorMessage)
	return err
}

// Recommend analyzes the product photo and replaces the ephemeral
// recommended preset list wholesale.
func (p *Pipeline) Recommend(ctx context.Context, image string) error {
	if image == "" {
		log.Debug().Msg("Recommend called without an image, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseAnalyzingImage, "Analyzing your product photo..."); err != nil {
		return err
	}
	return p.runRecommend(ctx, image)
}

// StartRecommend claims the pipeline and runs the recommendation in the
// background. Progress is observable via State and Subscribe.
func (p *Pipeline) StartRecommend(image string) error {
	if image == "" {
		log.Debug().Msg("Recommend called without an image, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseAnalyzingImage, "Analyzing your product photo..."); err != nil {
		return err
	}
	go func() {
		if err := p.runRecommend(context.Background(), image); err != nil {
			log.Debug().Err(err).Msg("Background recommendation finished with error")
		}
	}()
	return nil
}

func (p *Pipeline) runRecommend(ctx context.Context, image string) error {
	adapter, err := p.adapters.Get(p.imageProvider)
	if err != nil {
		return p.fail("recommend", err)
	}

	scenarios, err := adapter.RecommendScenarios(ctx, image)
	if err != nil {
		return p.fail("recommend", err)
	}

	recommended := p.presets.ReplaceRecommended(scenarios)
	log.Info().Int("count", len(recommended)).Msg("Recommended scenarios updated")
	p.setState(models.PhaseIdle, "")
	return nil
}

// Generate runs the sequential expand-then-generate loop over the selected
// presets. Unknown preset ids are skipped silently; the first failure
// aborts the batch and keeps earlier results.
func (p *Pipeline) Generate(ctx context.Context, req models.GenerateRequest) error {
	if req.Image == "" || len(req.PresetIDs) == 0 {
		log.Debug().Msg("Generate called without image or presets, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseExpandingPrompt, "Starting scene generation..."); err != nil {
		return err
	}
	return p.runGenerate(ctx, req)
}

// StartGenerate claims the pipeline and runs the batch in the background.
func (p *Pipeline) StartGenerate(req models.GenerateRequest) error {
	if req.Image == "" || len(req.PresetIDs) == 0 {
		log.Debug().Msg("Generate called without image or presets, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseExpandingPrompt, "Starting scene generation..."); err != nil {
		return err
	}
	go func() {
		if err := p.runGenerate(context.Background(), req); err != nil {
			log.Debug().Err(err).Msg("Background generation finished with error")
		}
	}()
	return nil
}

func (p *Pipeline) runGenerate(ctx context.Context, req models.GenerateRequest) error {
	p.mu.Lock()
	p.originalImage = req.Image
	p.mu.Unlock()

	processedImage := req.Image
	if req.RemoveBackground {
		p.setState(models.PhaseExpandingPrompt, "Removing the product background...")
		processed, err := p.remover.Remove(ctx, req.Image)
		if err != nil {
			return p.fail("background removal", err)
		}
		processedImage = processed
	}

	expandSvc, err := p.adapters.Get(p.expansionProvider)
	if err != nil {
		return p.fail("generate", err)
	}
	imageSvc, err := p.adapters.Get(p.imageProvider)
	if err != nil {
		return p.fail("generate", err)
	}

	total := len(req.PresetIDs)
	generated := 0
	for i, id := range req.PresetIDs {
		preset, ok := p.presets.Get(id)
		if !ok {
			log.Debug().Str("preset_id", id.String()).Msg("Unknown preset id, skipping")
			continue
		}

		p.setState(models.PhaseExpandingPrompt, fmt.Sprintf("[%d/%d] Designing %q scene...", i+1, total, preset.Name))
		expanded, err := expandSvc.ExpandPrompt(ctx, preset.Description, req.CustomContext)
		if err != nil {
			return p.fail("prompt expansion", err)
		}

		p.setState(models.PhaseGeneratingImage, fmt.Sprintf("[%d/%d] Rendering %q...", i+1, total, preset.Name))
		url, err := imageSvc.GenerateImage(ctx, processedImage, expanded, &llm.GenerateOptions{Quality: preset.Quality})
		if err != nil {
			return p.fail("image generation", err)
		}

		p.results.Prepend(models.GeneratedImage{
			ID:        uuid.New(),
			URL:       url,
			Prompt:    expanded,
			Vibe:      preset.Name,
			CreatedAt: time.Now(),
		})
		generated++
	}

	p.setState(models.PhaseCompleted, fmt.Sprintf("Generated %d scenes!", generated))
	p.scheduleReset()
	return nil
}

// Edit performs masked inpainting and appends the result as a new record.
func (p *Pipeline) Edit(ctx context.Context, image, mask, instruction string) error {
	if image == "" || mask == "" {
		log.Debug().Msg("Edit called without image or mask, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseGeneratingImage, "Applying your edit..."); err != nil {
		return err
	}
	return p.runEdit(ctx, image, mask, instruction)
}

// StartEdit claims the pipeline and runs the edit in the background.
func (p *Pipeline) StartEdit(image, mask, instruction string) error {
	if image == "" || mask == "" {
		log.Debug().Msg("Edit called without image or mask, ignoring")
		return nil
	}
	if err := p.claim(models.PhaseGeneratingImage, "Applying your edit..."); err != nil {
		return err
	}
	go func() {
		if err := p.runEdit(context.Background(), image, mask, instruction); err != nil {
			log.Debug().Err(err).Msg("Background edit finished with error")
		}
	}()
	return nil
}

func (p *Pipeline) runEdit(ctx context.Context, image, mask, instruction string) error {
	adapter, err := p.adapters.Get(p.imageProvider)
	if err != nil {
		return p.fail("edit", err)
	}

	url, err := adapter.EditImage(ctx, image, mask, instruction)
	if err != nil {
		return p.fail("image edit", err)
	}

	p.results.Prepend(models.GeneratedImage{
		ID:        uuid.New(),
		URL:       url,
		Prompt:    instruction,
		Vibe:      "Edited",
		CreatedAt: time.Now(),
	})
	p.setState(models.PhaseCompleted, "Edit complete!")
	p.scheduleReset()
	return nil
}

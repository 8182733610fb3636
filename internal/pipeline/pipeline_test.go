package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopscene/studio/internal/llm"
	"github.com/shopscene/studio/internal/models"
	"github.com/shopscene/studio/internal/store"
)

type generateCall struct {
	image  string
	prompt string
	opts   *llm.GenerateOptions
}

// fakeService implements llm.Service with recordable behavior.
type fakeService struct {
	mu             sync.Mutex
	expandCalls    []string
	generateCalls  []generateCall
	recommendCalls int
	editCalls      int

	expandFn    func(basePrompt string) (string, error)
	generateFn  func(call generateCall) (string, error)
	recommendFn func() ([]string, error)
	editFn      func(image, mask, instruction string) (string, error)
}

func newFakeService() *fakeService {
	return &fakeService{
		expandFn: func(basePrompt string) (string, error) {
			return "expanded: " + basePrompt, nil
		},
		generateFn: func(call generateCall) (string, error) {
			return "data:image/png;base64,IMG", nil
		},
		recommendFn: func() ([]string, error) {
			return []string{"scene one", "scene two", "scene three"}, nil
		},
		editFn: func(image, mask, instruction string) (string, error) {
			return "data:image/png;base64,EDITED", nil
		},
	}
}

func (f *fakeService) Provider() string { return "fake" }
func (f *fakeService) Available() bool  { return true }

func (f *fakeService) ExpandPrompt(ctx context.Context, basePrompt, customContext string) (string, error) {
	f.mu.Lock()
	f.expandCalls = append(f.expandCalls, basePrompt)
	f.mu.Unlock()
	return f.expandFn(basePrompt)
}

func (f *fakeService) GenerateImage(ctx context.Context, imageBase64, prompt string, opts *llm.GenerateOptions) (string, error) {
	call := generateCall{image: imageBase64, prompt: prompt, opts: opts}
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, call)
	f.mu.Unlock()
	return f.generateFn(call)
}

func (f *fakeService) RecommendScenarios(ctx context.Context, imageBase64 string) ([]string, error) {
	f.mu.Lock()
	f.recommendCalls++
	f.mu.Unlock()
	return f.recommendFn()
}

func (f *fakeService) EditImage(ctx context.Context, imageBase64, maskBase64, instruction string) (string, error) {
	f.mu.Lock()
	f.editCalls++
	f.mu.Unlock()
	return f.editFn(imageBase64, maskBase64, instruction)
}

func (f *fakeService) snapshot() (expand []string, generate []generateCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.expandCalls...), append([]generateCall(nil), f.generateCalls...)
}

// fakeSource hands out the same fake adapter for every provider id.
type fakeSource struct {
	svc llm.Service
}

func (s *fakeSource) Get(provider string) (llm.Service, error) {
	return s.svc, nil
}

// fakeRemover counts removal calls and returns a fixed processed image.
type fakeRemover struct {
	mu    sync.Mutex
	calls int
	out   string
	err   error
}

func (r *fakeRemover) Available() bool { return true }

func (r *fakeRemover) Remove(ctx context.Context, image string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	return r.out, nil
}

func newTestPipeline(svc llm.Service, presets *store.PresetStore, remover Remover, resetDelay time.Duration) (*Pipeline, *store.ResultStore) {
	results := store.NewResultStore()
	p := New(&fakeSource{svc: svc}, presets, results, remover, "gemini", "gemini", resetDelay)
	return p, results
}

func seedPresets(t *testing.T, names ...string) (*store.PresetStore, []uuid.UUID) {
	t.Helper()
	presets := store.NewPresetStore(nil)
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		p, err := presets.Create(models.CreatePresetRequest{
			Name:        name,
			Description: "a scene for " + name,
			Quality:     "quality tag for " + name,
		})
		if err != nil {
			t.Fatalf("create preset: %v", err)
		}
		ids = append(ids, p.ID)
	}
	return presets, ids
}

func waitForPhase(t *testing.T, p *Pipeline, phase models.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.State().Phase == phase {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("pipeline never reached phase %q, stuck at %q", phase, p.State().Phase)
}

func TestGenerate_BatchOrderingAndTraceability(t *testing.T) {
	svc := newFakeService()
	svc.generateFn = func(call generateCall) (string, error) {
		return "data:image/png;base64," + call.prompt, nil
	}
	presets, ids := seedPresets(t, "Alpha", "Beta", "Gamma")
	p, results := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	err := p.Generate(context.Background(), models.GenerateRequest{
		Image:     "QUJD",
		PresetIDs: ids,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	list := results.List()
	if len(list) != 3 {
		t.Fatalf("results = %d, want 3", len(list))
	}
	// Most-recent-first: Gamma, Beta, Alpha.
	wantVibes := []string{"Gamma", "Beta", "Alpha"}
	for i, want := range wantVibes {
		if list[i].Vibe != want {
			t.Errorf("results[%d].Vibe = %q, want %q", i, list[i].Vibe, want)
		}
	}

	// Prompt traceability: each record's prompt is exactly what the image
	// call received, which is the expansion of the preset description.
	_, generateCalls := svc.snapshot()
	for i, rec := range list {
		call := generateCalls[len(generateCalls)-1-i]
		if rec.Prompt != call.prompt {
			t.Errorf("results[%d].Prompt = %q, generate call got %q", i, rec.Prompt, call.prompt)
		}
		if !strings.HasPrefix(rec.Prompt, "expanded: ") {
			t.Errorf("results[%d].Prompt = %q, want expansion output", i, rec.Prompt)
		}
	}

	seen := map[uuid.UUID]bool{}
	for _, rec := range list {
		if seen[rec.ID] {
			t.Errorf("duplicate result id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestGenerate_ExampleScenarioWithBackgroundRemoval(t *testing.T) {
	svc := newFakeService()
	remover := &fakeRemover{out: "data:image/png;base64,UFJPQ0VTU0VE"}
	presets, ids := seedPresets(t, "Minimalist Studio", "Rustic Outdoor")
	p, results := newTestPipeline(svc, presets, remover, 20*time.Millisecond)

	var transitions []models.ProcessingState
	var transitionsMu sync.Mutex
	states, cancel := p.Subscribe()
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range states {
			transitionsMu.Lock()
			transitions = append(transitions, s)
			transitionsMu.Unlock()
		}
	}()

	err := p.Generate(context.Background(), models.GenerateRequest{
		Image:            "T1JJR0lOQUw=",
		PresetIDs:        ids,
		RemoveBackground: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if remover.calls != 1 {
		t.Errorf("removal calls = %d, want 1", remover.calls)
	}
	expandCalls, generateCalls := svc.snapshot()
	if len(expandCalls) != 2 || len(generateCalls) != 2 {
		t.Errorf("calls = %d expand + %d generate, want 2 + 2", len(expandCalls), len(generateCalls))
	}
	for i, call := range generateCalls {
		if call.image != remover.out {
			t.Errorf("generate call %d used image %q, want the processed image", i, call.image)
		}
		if call.opts == nil || !strings.HasPrefix(call.opts.Quality, "quality tag for ") {
			t.Errorf("generate call %d missing preset quality, got %+v", i, call.opts)
		}
	}
	if p.OriginalImage() != "T1JJR0lOQUw=" {
		t.Error("original image was not preserved")
	}

	list := results.List()
	if len(list) != 2 {
		t.Fatalf("results = %d, want 2", len(list))
	}
	if list[0].Vibe != "Rustic Outdoor" || list[1].Vibe != "Minimalist Studio" {
		t.Errorf("vibes = [%q, %q]", list[0].Vibe, list[1].Vibe)
	}
	if list[0].ID == list[1].ID {
		t.Error("result ids are not distinct")
	}

	if p.State().Phase != models.PhaseCompleted {
		t.Errorf("phase = %q, want completed", p.State().Phase)
	}
	waitForPhase(t, p, models.PhaseIdle)

	cancel()
	<-done
	transitionsMu.Lock()
	defer transitionsMu.Unlock()
	var sawDesign, sawRender bool
	for _, s := range transitions {
		if s.Phase == models.PhaseExpandingPrompt && strings.Contains(s.Message, `[1/2] Designing "Minimalist Studio" scene...`) {
			sawDesign = true
		}
		if s.Phase == models.PhaseGeneratingImage && strings.Contains(s.Message, `[2/2] Rendering "Rustic Outdoor"...`) {
			sawRender = true
		}
	}
	if !sawDesign || !sawRender {
		t.Errorf("missing progress messages, got %+v", transitions)
	}
}

func TestGenerate_BlockedWhileRunning(t *testing.T) {
	svc := newFakeService()
	release := make(chan struct{})
	svc.expandFn = func(basePrompt string) (string, error) {
		<-release
		return "expanded", nil
	}
	presets, ids := seedPresets(t, "Solo")
	p, _ := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	req := models.GenerateRequest{Image: "QUJD", PresetIDs: ids}
	errCh := make(chan error, 1)
	go func() { errCh <- p.Generate(context.Background(), req) }()
	waitForPhase(t, p, models.PhaseExpandingPrompt)

	if err := p.Generate(context.Background(), req); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Generate = %v, want ErrBusy", err)
	}
	if err := p.Recommend(context.Background(), "QUJD"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Recommend = %v, want ErrBusy", err)
	}
	if err := p.Edit(context.Background(), "QUJD", "TUFTSw==", "edit"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Edit = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.State().Phase != models.PhaseCompleted {
		t.Errorf("phase = %q, want completed", p.State().Phase)
	}
}

func TestGenerate_FailureAbortsRemainingPresets(t *testing.T) {
	svc := newFakeService()
	var generateCount int
	var countMu sync.Mutex
	svc.generateFn = func(call generateCall) (string, error) {
		countMu.Lock()
		defer countMu.Unlock()
		generateCount++
		if generateCount == 2 {
			return "", &llm.GenerationError{Op: "image generation", Err: errors.New("upstream 500")}
		}
		return "data:image/png;base64,IMG", nil
	}
	presets, ids := seedPresets(t, "First", "Second", "Third")
	p, results := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	err := p.Generate(context.Background(), models.GenerateRequest{Image: "QUJD", PresetIDs: ids})
	if err == nil {
		t.Fatal("expected the batch to fail")
	}

	state := p.State()
	if state.Phase != models.PhaseError {
		t.Errorf("phase = %q, want error", state.Phase)
	}
	if strings.Contains(state.Message, "upstream 500") {
		t.Errorf("error message should be generic, got %q", state.Message)
	}

	// Completed preset kept, remaining presets never attempted.
	if results.Len() != 1 {
		t.Errorf("results = %d, want 1 (partial batch kept)", results.Len())
	}
	expandCalls, generateCalls := svc.snapshot()
	if len(expandCalls) != 2 || len(generateCalls) != 2 {
		t.Errorf("calls after abort = %d expand + %d generate, want 2 + 2", len(expandCalls), len(generateCalls))
	}

	// A failed pipeline accepts a fresh batch.
	svc.generateFn = func(call generateCall) (string, error) { return "data:image/png;base64,OK", nil }
	if err := p.Generate(context.Background(), models.GenerateRequest{Image: "QUJD", PresetIDs: ids[:1]}); err != nil {
		t.Fatalf("Generate after error: %v", err)
	}
}

func TestGenerate_SkipsUnknownPresetIDs(t *testing.T) {
	svc := newFakeService()
	presets, ids := seedPresets(t, "Known")
	p, results := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	err := p.Generate(context.Background(), models.GenerateRequest{
		Image:     "QUJD",
		PresetIDs: []uuid.UUID{uuid.New(), ids[0], uuid.New()},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if results.Len() != 1 {
		t.Errorf("results = %d, want 1", results.Len())
	}
	if p.State().Phase != models.PhaseCompleted {
		t.Errorf("phase = %q, want completed", p.State().Phase)
	}
}

func TestGenerate_NoopWithoutInput(t *testing.T) {
	svc := newFakeService()
	presets, ids := seedPresets(t, "Any")
	p, results := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	if err := p.Generate(context.Background(), models.GenerateRequest{Image: "", PresetIDs: ids}); err != nil {
		t.Errorf("Generate without image = %v, want nil no-op", err)
	}
	if err := p.Generate(context.Background(), models.GenerateRequest{Image: "QUJD"}); err != nil {
		t.Errorf("Generate without presets = %v, want nil no-op", err)
	}

	if p.State().Phase != models.PhaseIdle {
		t.Errorf("phase = %q, want idle", p.State().Phase)
	}
	expandCalls, generateCalls := svc.snapshot()
	if len(expandCalls) != 0 || len(generateCalls) != 0 {
		t.Error("no-op generate must not call the adapter")
	}
	if results.Len() != 0 {
		t.Error("no-op generate must not append results")
	}
}

func TestGenerate_BackgroundRemovalFailure(t *testing.T) {
	svc := newFakeService()
	remover := &fakeRemover{err: errors.New("collaborator down")}
	presets, ids := seedPresets(t, "Scene")
	p, results := newTestPipeline(svc, presets, remover, time.Hour)

	err := p.Generate(context.Background(), models.GenerateRequest{
		Image:            "QUJD",
		PresetIDs:        ids,
		RemoveBackground: true,
	})
	if err == nil {
		t.Fatal("expected failure when background removal fails")
	}
	if p.State().Phase != models.PhaseError {
		t.Errorf("phase = %q, want error", p.State().Phase)
	}
	if results.Len() != 0 {
		t.Error("no results expected when the batch fails before generation")
	}
}

func TestRecommend_ReplacesRecommendationsWholesale(t *testing.T) {
	svc := newFakeService()
	round := 0
	svc.recommendFn = func() ([]string, error) {
		round++
		return []string{
			fmt.Sprintf("round %d scene a", round),
			fmt.Sprintf("round %d scene b", round),
			fmt.Sprintf("round %d scene c", round),
		}, nil
	}
	presets, _ := seedPresets(t, "Library Preset")
	p, _ := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	if err := p.Recommend(context.Background(), "QUJD"); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if p.State().Phase != models.PhaseIdle {
		t.Errorf("phase after recommend = %q, want idle", p.State().Phase)
	}

	first := recommendedOf(presets.List())
	if len(first) != 3 {
		t.Fatalf("recommended = %d, want 3", len(first))
	}

	if err := p.Recommend(context.Background(), "QUJD"); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second := recommendedOf(presets.List())
	if len(second) != 3 {
		t.Fatalf("recommended after second call = %d, want 3", len(second))
	}
	for _, s := range second {
		if !strings.Contains(s.Description, "round 2") {
			t.Errorf("stale recommendation survived: %q", s.Description)
		}
	}
}

func recommendedOf(all []models.ScenarioPreset) []models.ScenarioPreset {
	var out []models.ScenarioPreset
	for _, p := range all {
		if p.IsRecommended {
			out = append(out, p)
		}
	}
	return out
}

func TestEdit_AppendsEditedResult(t *testing.T) {
	svc := newFakeService()
	presets, _ := seedPresets(t, "Any")
	p, results := newTestPipeline(svc, presets, &fakeRemover{}, time.Hour)

	if err := p.Edit(context.Background(), "data:image/png;base64,QUJD", "TUFTSw==", "swap the backdrop"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	list := results.List()
	if len(list) != 1 {
		t.Fatalf("results = %d, want 1", len(list))
	}
	if list[0].Vibe != "Edited" {
		t.Errorf("Vibe = %q, want Edited", list[0].Vibe)
	}
	if list[0].Prompt != "swap the backdrop" {
		t.Errorf("Prompt = %q", list[0].Prompt)
	}
	if p.State().Phase != models.PhaseCompleted {
		t.Errorf("phase = %q, want completed", p.State().Phase)
	}
}

package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Element is one addressable thing the vision model found on screen.
type Element struct {
	ID          int    `json:"id"`
	Kind        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Analysis is the structured description of the current screen that the
// planner reasons over. Held by the task cycle until the next capture.
type Analysis struct {
	Description string    `json:"description"`
	Elements    []Element `json:"elements"`
}

func (a *Analysis) FindElement(id int) (Element, bool) {
	if a == nil {
		return Element{}, false
	}
	for _, el := range a.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// Capturer produces a raw environment snapshot (a PNG of the screen).
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Perception turns snapshots into analyses. Analyze never fails: on any
// backend error it returns a degraded analysis with an empty element list
// so the task cycle keeps control of the failure policy.
type Perception interface {
	Capture(ctx context.Context) ([]byte, error)
	Analyze(ctx context.Context, snapshot []byte, taskText string) *Analysis
}

// VisionModel is the slice of the LLM client perception needs.
type VisionModel interface {
	GenerateVisionJSON(ctx context.Context, prompt string, image []byte) (string, error)
}

type VLM struct {
	capturer Capturer
	model    VisionModel
	log      zerolog.Logger
}

func NewVLM(capturer Capturer, model VisionModel, log zerolog.Logger) *VLM {
	return &VLM{capturer: capturer, model: model, log: log.With().Str("component", "perception").Logger()}
}

func (v *VLM) Capture(ctx context.Context) ([]byte, error) {
	return v.capturer.Capture(ctx)
}

func (v *VLM) Analyze(ctx context.Context, snapshot []byte, taskText string) *Analysis {
	if len(snapshot) == 0 {
		return degraded("no screen snapshot available")
	}
	raw, err := v.model.GenerateVisionJSON(ctx, buildAnalysisPrompt(taskText), snapshot)
	if err != nil {
		v.log.Error().Err(err).Msg("screen analysis failed")
		return degraded(fmt.Sprintf("screen analysis failed: %v", err))
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		// The model returned plain text; use it as the description.
		v.log.Warn().Msg("vision model returned non-JSON output")
		return &Analysis{Description: strings.TrimSpace(raw), Elements: nil}
	}
	return &analysis
}

func degraded(reason string) *Analysis {
	return &Analysis{Description: reason, Elements: nil}
}

func buildAnalysisPrompt(taskText string) string {
	var sb strings.Builder
	sb.WriteString("You are the perception module of an autonomous desktop agent.\n")
	sb.WriteString(fmt.Sprintf("User's command: %q\n\n", taskText))
	sb.WriteString("Analyze the attached screenshot of a computer screen. Based on the user's command, identify interactive elements.\n")
	sb.WriteString("Your response MUST be a single JSON object. Do not include any other text or explanations.\n")
	sb.WriteString("The JSON object has two keys: \"description\" and \"elements\".\n")
	sb.WriteString("- \"description\": a brief summary of what's on the screen.\n")
	sb.WriteString("- \"elements\": a list of objects with keys \"id\" (unique integer), \"type\" (e.g. \"button\", \"input_field\", \"link\"), \"label\" (text on the element), and \"description\".\n")
	sb.WriteString("If you cannot identify specific elements, provide an empty list for \"elements\" but still provide the screen description.\n")
	return sb.String()
}

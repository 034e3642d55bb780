package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

func TestOpenRouterForIntentOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "openai/gpt-4o-mini",
		MaxCompletionToken: 256,
		Temperature:        0.7,
		IntentModel:        "x-ai/grok-4.1-fast",
		IntentTemperature:  0,
	}
	got := cfg.OpenRouterForIntent()
	if got.Model != "x-ai/grok-4.1-fast" {
		t.Fatalf("Model = %q", got.Model)
	}
	if got.Temperature != 0 {
		t.Fatalf("Temperature = %v, want 0", got.Temperature)
	}
	if got.APIKey != "key" {
		t.Fatalf("APIKey = %q", got.APIKey)
	}
	if got.MaxCompletionToken == nil || *got.MaxCompletionToken != 256 {
		t.Fatalf("MaxCompletionToken = %v", got.MaxCompletionToken)
	}
}

func TestOpenRouterForIntentFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "key", Model: "openai/gpt-4o-mini", Temperature: 0.3, IntentTemperature: -1}
	got := cfg.OpenRouterForIntent()
	if got.Model != "openai/gpt-4o-mini" || got.Temperature != 0.3 {
		t.Fatalf("OpenRouterForIntent() = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
	if (Config{APIKey: "k"}).Enabled() {
		t.Fatal("Enabled() = true without a model")
	}
}

package ooda

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOracle returns a canned completion and records the prompt.
type fakeOracle struct {
	response string
	err      error
	prompt   string
	system   string
}

func (f *fakeOracle) Generate(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	f.prompt = prompt
	f.system = systemMessage
	return f.response, f.err
}

func (f *fakeOracle) Model() string { return "fake" }

func TestLLMRecognizerRecognize(t *testing.T) {
	registry := newDecideRegistry(t)

	t.Run("recognized action", func(t *testing.T) {
		oracle := &fakeOracle{response: "```json\n" +
			`{"action_type": "check_in", "entities": {"room_number": "301", "guest_name": "张三"}, "confidence": 0.92}` +
			"\n```"}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		intent, err := r.Recognize(context.Background(), "给张三办理入住 301")
		require.NoError(t, err)
		require.NotNil(t, intent)
		assert.Equal(t, "check_in", intent.ActionType)
		assert.Equal(t, "301", intent.Entities["room_number"])
		assert.InDelta(t, 0.92, intent.Confidence, 0.001)
	})

	t.Run("empty action means no intent", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action_type": "", "confidence": 0.1}`}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		intent, err := r.Recognize(context.Background(), "what's the weather")
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("unregistered action means no intent", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action_type": "launch_rocket", "confidence": 0.9}`}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		intent, err := r.Recognize(context.Background(), "launch the rocket")
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("confidence clamped", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action_type": "check_in", "confidence": 3.0}`}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		intent, err := r.Recognize(context.Background(), "check in")
		require.NoError(t, err)
		require.NotNil(t, intent)
		assert.Equal(t, 1.0, intent.Confidence)
	})

	t.Run("oracle failure propagates", func(t *testing.T) {
		oracle := &fakeOracle{err: errors.New("model unavailable")}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		_, err := r.Recognize(context.Background(), "check in")
		assert.Error(t, err)
	})

	t.Run("non-JSON response is an error", func(t *testing.T) {
		oracle := &fakeOracle{response: "I cannot help with that."}
		r := NewLLMRecognizer(registry, oracle, zap.NewNop())

		_, err := r.Recognize(context.Background(), "check in")
		assert.Error(t, err)
	})
}

func TestLLMRecognizerPromptGrounding(t *testing.T) {
	registry := newDecideRegistry(t)
	oracle := &fakeOracle{response: `{"action_type": ""}`}
	r := NewLLMRecognizer(registry, oracle, zap.NewNop())

	_, err := r.Recognize(context.Background(), "anything at all")
	require.NoError(t, err)

	// The prompt carries the action catalog and required fields.
	assert.Contains(t, oracle.prompt, "check_in")
	assert.Contains(t, oracle.prompt, "required: room_number, guest_name")
	assert.Contains(t, oracle.prompt, "User request: anything at all")
	assert.Contains(t, oracle.system, "action_type")
}

package chat_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/termstudio/taxon/internal/chat"
	"github.com/termstudio/taxon/internal/config"
)

type stubClient struct {
	calls int
	fn    func(call int) (string, error)
}

func (c *stubClient) Chat(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.fn(c.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCaller(client chat.Client, maxRetries int) *chat.Caller {
	return chat.NewWithClient(client, &config.ChatConfig{
		Timeout:     "5s",
		MaxRetries:  maxRetries,
		MaxInFlight: 2,
	}, discardLogger())
}

func TestCallerChat(t *testing.T) {
	t.Run("returns content", func(t *testing.T) {
		client := &stubClient{fn: func(_ int) (string, error) {
			return "hello", nil
		}}

		got, err := newCaller(client, 3).Chat(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Chat error: %v", err)
		}
		if got != "hello" {
			t.Errorf("content = %q, want hello", got)
		}
		if client.calls != 1 {
			t.Errorf("calls = %d, want 1", client.calls)
		}
	})

	t.Run("retries transient failure", func(t *testing.T) {
		client := &stubClient{fn: func(call int) (string, error) {
			if call == 1 {
				return "", errors.New("connection reset")
			}
			return "recovered", nil
		}}

		got, err := newCaller(client, 2).Chat(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Chat error: %v", err)
		}
		if got != "recovered" {
			t.Errorf("content = %q, want recovered", got)
		}
		if client.calls != 2 {
			t.Errorf("calls = %d, want 2", client.calls)
		}
	})

	t.Run("exhausted retries wrap the provider error", func(t *testing.T) {
		client := &stubClient{fn: func(_ int) (string, error) {
			return "", errors.New("connection reset")
		}}

		_, err := newCaller(client, 1).Chat(context.Background(), "prompt")
		if !errors.Is(err, chat.ErrProviderUnavailable) {
			t.Errorf("Chat error = %v, want ErrProviderUnavailable", err)
		}
		if client.calls != 1 {
			t.Errorf("calls = %d, want 1", client.calls)
		}
	})

	t.Run("cancellation is not a provider failure", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := &stubClient{fn: func(_ int) (string, error) {
			cancel()
			return "", errors.New("connection reset")
		}}

		_, err := newCaller(client, 3).Chat(ctx, "prompt")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Chat error = %v, want context.Canceled", err)
		}
		if client.calls != 1 {
			t.Errorf("calls = %d, want 1 (no retry after cancellation)", client.calls)
		}
	})
}

package server

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// captureLogger records formatted messages
type captureLogger struct {
	lines []string
}

func (c *captureLogger) Printf(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestWebLogger_BasicLogging(t *testing.T) {
	// Create a channel to receive console messages
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-123", messageChan, nil)

	testMessage := "Test log message"
	logger.Printf("%s\n", testMessage)

	select {
	case msg := <-messageChan:
		expectedMessage := testMessage + "\n"
		if msg.Message != expectedMessage {
			t.Errorf("Expected message '%s', got '%s'", expectedMessage, msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if msg.RenderID != "test-render-123" {
			t.Errorf("Expected render ID 'test-render-123', got '%s'", msg.RenderID)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}
}

func TestWebLogger_ForwardsToNext(t *testing.T) {
	next := &captureLogger{}
	logger := NewWebLogger("render-7", nil, next)

	logger.Printf("Scanlines remaining: %d\n", 3)

	if len(next.lines) != 1 {
		t.Fatalf("Expected 1 forwarded line, got %d", len(next.lines))
	}
	if next.lines[0] != "[render-7] Scanlines remaining: 3\n" {
		t.Errorf("Unexpected forwarded line %q", next.lines[0])
	}
}

func TestWebLogger_ChannelFull(t *testing.T) {
	// Create a small channel that will fill up
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("test-render-789", messageChan, nil)

	logger.Printf("Message 1\n")
	// These must not block even though the channel is full
	logger.Printf("Message 2\n")
	logger.Printf("Message 3\n")

	msg := <-messageChan
	if !strings.HasPrefix(msg.Message, "Message 1") {
		t.Errorf("Expected the first message to be kept, got %q", msg.Message)
	}
	if len(messageChan) != 0 {
		t.Errorf("Overflowing messages should be dropped, %d queued", len(messageChan))
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	// Test logger with nil channel (should not panic)
	logger := NewWebLogger("test-render-nil", nil, nil)
	logger.Printf("Test message with nil channel\n")
}

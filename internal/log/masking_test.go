package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskingHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "mask telegram token in message",
			input:    `Post "https://api.telegram.org/bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q/getUpdates": net/http: request canceled`,
			expected: `Post "https://api.telegram.org/bot***:***masked-token***/getUpdates": net/http: request canceled`,
		},
		{
			name:     "no token in message",
			input:    "This is a normal log message without tokens",
			expected: "This is a normal log message without tokens",
		},
		{
			name:     "multiple tokens in message",
			input:    "Token1: bot123456789:AAABCdEfGhIjKlMnOpQrStUvWxYz1234567, Token2: bot987654321:AAzZzYyXxWwVvUuTtSsRrQqPpOnNmLlKkJjI",
			expected: "Token1: bot***:***masked-token***, Token2: bot***:***masked-token***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel() // Добавляем параллельное выполнение для выявления гонок
			var buf bytes.Buffer
			originalHandler := slog.NewJSONHandler(&buf, nil)
			maskerHandler := NewMaskingHandler(originalHandler)

			logger := slog.New(maskerHandler)

			logger.Info(tt.input)

			output := buf.String()
			expectedEscaped := strings.ReplaceAll(tt.expected, "\"", "\\\"")
			if !strings.Contains(output, expectedEscaped) {
				t.Errorf("expected output to contain %q, got %q", expectedEscaped, output)
			}
		})
	}
}

func TestMaskingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	originalHandler := slog.NewJSONHandler(&buf, nil)
	maskerHandler := NewMaskingHandler(originalHandler)

	logger := slog.New(maskerHandler)

	token := "bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q"
	logger = logger.With(slog.String("token", token))

	logger.Info("message with token in attr")

	output := buf.String()
	if strings.Contains(output, token) {
		t.Errorf("expected output to not contain original token %q, but it did", token)
	}
	if !strings.Contains(output, "***masked-token***") {
		t.Errorf("expected output to contain masked token, got %q", output)
	}
}

func TestMaskTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			input:    `Post "https://api.telegram.org/bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q/getUpdates"`,
			expected: `Post "https://api.telegram.org/bot***:***masked-token***/getUpdates"`,
		},
		{
			input:    "No token here",
			expected: "No token here",
		},
		{
			input:    "bot123456789:AAABCdEfGhIjKlMnOpQrStUvWxYz1234567",
			expected: "bot***:***masked-token***",
		},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := maskTokens(tt.input)
			if result != tt.expected {
				t.Errorf("maskTokens(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMaskPhones(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+7 912 345-67-89", "+***89"},
		{"sender=+1 (555) 010-9999 joined", "sender=+***99 joined"},
		{"+491701234567", "+***67"},
		{"score +12 points", "score +12 points"},
		{"12/31/23, 9:41 PM", "12/31/23, 9:41 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := maskPhones(tt.input); result != tt.expected {
				t.Errorf("maskPhones(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMaskingHandler_PhoneInGroupAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("participant",
		slog.Group("chat", slog.String("sender", "+7 912 345-67-89")),
		slog.Any("error", errors.New("unknown sender +44 7700 900123")))

	output := buf.String()
	if strings.Contains(output, "912 345") || strings.Contains(output, "7700 900") {
		t.Errorf("expected phones to be masked, got %q", output)
	}
	if !strings.Contains(output, "+***89") || !strings.Contains(output, "+***23") {
		t.Errorf("expected masked phones in output, got %q", output)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("visible", "token", "bot123456789:AAABCdEfGhIjKlMnOpQrStUvWxYz1234567")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info must be filtered at warn level, got %q", output)
	}
	if !strings.Contains(output, `"msg":"visible"`) || !strings.Contains(output, "***masked-token***") {
		t.Errorf("unexpected output %q", output)
	}

	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("bogus") != slog.LevelInfo {
		t.Error("unexpected ParseLevel result")
	}
}

func TestMaskingHandler_AttrsNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("upload", "sender", "+7 912 345-67-89", "messages", 3)

	output := buf.String()
	if strings.Count(output, "sender=") != 1 || strings.Count(output, "messages=") != 1 {
		t.Errorf("expected each attribute once, got %q", output)
	}
	if strings.Contains(output, "912 345") {
		t.Errorf("expected phone to be masked, got %q", output)
	}
}

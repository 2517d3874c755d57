package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectError bool
	}{
		{
			name:  "Debug level",
			level: "debug",
		},
		{
			name:   "Info level with text format",
			level:  "info",
			format: "text",
		},
		{
			name:   "Error level with json format",
			level:  "error",
			format: "json",
		},
		{
			name:        "Invalid level",
			level:       "invalid",
			expectError: true,
		},
		{
			name:        "Invalid format",
			level:       "info",
			format:      "yaml",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level, tt.format)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	log.SetLevel(logrus.DebugLevel)
	return &buf
}

func TestLogging(t *testing.T) {
	buf := captureOutput(t)

	tests := []struct {
		name          string
		logFunc       func(string, ...map[string]interface{})
		message       string
		fields        map[string]interface{}
		expectedLevel string
	}{
		{
			name:          "Debug message",
			logFunc:       Debug,
			message:       "Debug test",
			expectedLevel: "debug",
		},
		{
			name:          "Info message",
			logFunc:       Info,
			message:       "Info test",
			expectedLevel: "info",
		},
		{
			name:          "Warn message",
			logFunc:       Warn,
			message:       "Warn test",
			expectedLevel: "warning",
		},
		{
			name:    "Debug with fields",
			logFunc: Debug,
			message: "Debug with fields",
			fields: map[string]interface{}{
				"page": "001901",
			},
			expectedLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			if tt.fields != nil {
				tt.logFunc(tt.message, tt.fields)
			} else {
				tt.logFunc(tt.message)
			}

			output := buf.String()
			if !strings.Contains(output, "level="+tt.expectedLevel) {
				t.Errorf("Expected log level %s, got %s", tt.expectedLevel, output)
			}
			if !strings.Contains(output, tt.message) {
				t.Errorf("Expected message %s, got %s", tt.message, output)
			}
			for k, v := range tt.fields {
				if !strings.Contains(output, k+"="+v.(string)) {
					t.Errorf("Expected field %s=%v in output: %s", k, v, output)
				}
			}
		})
	}
}

func TestError(t *testing.T) {
	buf := captureOutput(t)

	testMessage := "Error test"
	testError := errors.New("test error")

	Error(testMessage, testError)
	output := buf.String()
	if !strings.Contains(output, "level=error") {
		t.Error("Expected error level")
	}
	if !strings.Contains(output, testError.Error()) {
		t.Error("Expected error details")
	}

	buf.Reset()
	Error(testMessage, testError, map[string]interface{}{"act": "Act6"})
	if !strings.Contains(buf.String(), "act=Act6") {
		t.Error("Expected error with fields")
	}
}

func TestWithComponent(t *testing.T) {
	buf := captureOutput(t)

	WithComponent("archive").Info("walk done")
	if !strings.Contains(buf.String(), "component=archive") {
		t.Errorf("Expected component field, got %s", buf.String())
	}
}

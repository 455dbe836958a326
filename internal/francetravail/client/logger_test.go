package client

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug(context.Background(), "hidden", nil)
	logger.Info(context.Background(), "Access token obtained", map[string]interface{}{
		"token_type": "Bearer",
		"operation":  "token_request",
	})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="Access token obtained"`)
	assert.Contains(t, out, "adapter=francetravail")
	assert.Regexp(t, `operation=token_request token_type=Bearer`, out)
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), "ignored", map[string]interface{}{"k": "v"})
	})
}

func TestDiagnostics(t *testing.T) {
	diag := NewDiagnostics()
	assert.False(t, diag.HasIssues())

	diag.AddDroppedColumn("commentaire")
	assert.True(t, diag.HasIssues())

	diag = NewDiagnostics()
	diag.AddWarning("nested element <detail> has no scalar value")
	assert.True(t, diag.HasIssues())
	assert.Len(t, diag.Warnings, 1)
}

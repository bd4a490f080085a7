package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	err := NewLogNotifier().Notify(ctx, Notification{
		Channel: "redashdealerreports",
		Message: "Your Redash reports are ready!",
		Files:   []string{"Reports/r1/2024-03-01_Monthly Report (2024-02-01 - 2024-02-29).csv"},
		Titles:  []string{"Monthly Report (2024-02-01 - 2024-02-29)"},
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "redashdealerreports", entry["channel"])
	assert.Equal(t, "Your Redash reports are ready!", entry["message"])
	assert.Len(t, entry["files"], 1)
}

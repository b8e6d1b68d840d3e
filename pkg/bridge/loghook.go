package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const logWriteTimeout = 2 * time.Second

// LogHook forwards logrus entries to the other end of a bridge as log.write
// requests.
type LogHook struct {
	client *Client
	levels []log.Level
}

// NewLogHook returns a hook firing for level and anything more severe.
func NewLogHook(client *Client, level log.Level) *LogHook {
	levels := make([]log.Level, 0, len(log.AllLevels))
	for _, l := range log.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return &LogHook{client, levels}
}

func (h *LogHook) Levels() []log.Level {
	return h.levels
}

func (h *LogHook) Fire(entry *log.Entry) error {
	fields := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}
	raw, err := json.Marshal(LogEntry{
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  fields,
	})
	if err != nil {
		return fmt.Errorf("bridge: failed to encode log entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()
	_, err = h.client.Call(ctx, MethodLog, "", raw)
	return err
}

package progress

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Console prints one line per phase and the final summary. Per-file
// events are printed only when Verbose is set.
type Console struct {
	W       io.Writer
	Verbose bool
}

func (c *Console) HandleEvent(_ context.Context, evt Event) error {
	switch evt.Kind {
	case ArtifactWritten:
		if !c.Verbose {
			return nil
		}
		_, err := fmt.Fprintf(c.W, "  %s\n", evt.Path)
		return err
	case PhaseStarted:
		return nil
	case RunFailed:
		_, err := fmt.Fprintf(c.W, "%s: %s\n", evt.Summary, evt.Error)
		return err
	default:
		_, err := fmt.Fprintln(c.W, evt.Summary)
		return err
	}
}

// LogConsumer logs every event at debug level, failures at error level.
type LogConsumer struct {
	Log *zap.Logger
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt Event) error {
	fields := []zap.Field{
		zap.String("run", evt.RunID),
		zap.String("kind", string(evt.Kind)),
	}
	if evt.Phase != "" {
		fields = append(fields, zap.String("phase", evt.Phase))
	}
	if evt.Path != "" {
		fields = append(fields, zap.String("path", evt.Path))
	}
	if evt.Kind == RunFailed {
		c.Log.Error(evt.Summary, append(fields, zap.String("error", evt.Error))...)
		return nil
	}
	c.Log.Debug(evt.Summary, fields...)
	return nil
}

// Stream buffers events for one remote listener. A listener that falls
// behind loses events rather than stalling the bus.
type Stream struct {
	C       chan Event
	dropped int
}

// NewStream creates a Stream holding up to size events.
func NewStream(size int) *Stream {
	return &Stream{C: make(chan Event, size)}
}

func (s *Stream) HandleEvent(_ context.Context, evt Event) error {
	select {
	case s.C <- evt:
		return nil
	default:
		s.dropped++
		return fmt.Errorf("stream full, %d events dropped", s.dropped)
	}
}

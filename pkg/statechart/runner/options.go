package runner

import "context"

type OptionKey string

const (
	QueueOptionKey   OptionKey = "queue_options"
	ProcessOptionKey OptionKey = "process_options"
)

const DefaultQueueSize = 16

type QueueOptions struct {
	Size int
}

type ProcessOptions struct {
	ProcessRemaining bool
}

func WithQueueOptions(ctx context.Context, size int) context.Context {
	return context.WithValue(ctx, QueueOptionKey, QueueOptions{Size: size})
}

// WithProcessOptions controls whether events still queued when the run
// context ends are reported as cancelled or dropped.
func WithProcessOptions(ctx context.Context, processRemaining bool) context.Context {
	return context.WithValue(ctx, ProcessOptionKey, ProcessOptions{ProcessRemaining: processRemaining})
}

func GetQueueSize(ctx context.Context, defaultSize int) int {
	options, ok := ctx.Value(QueueOptionKey).(QueueOptions)
	if ok && options.Size >= 0 {
		return options.Size
	}
	return defaultSize
}

func IsProcessRemainingEnabled(ctx context.Context, defaultProcessRemaining bool) bool {
	options, ok := ctx.Value(ProcessOptionKey).(ProcessOptions)
	if ok {
		return options.ProcessRemaining
	}
	return defaultProcessRemaining
}

package vkframe

import (
	"sync"

	"github.com/andewx/vkframe/logx"
	"github.com/pkg/errors"
)

// Handle is an opaque reference to a GraphicsContext held by the registry.
// Zero is never a valid handle.
type Handle uint64

// ErrUnknownHandle is returned for handles that were never opened or are
// already closed.
var ErrUnknownHandle = errors.New("vkframe: unknown handle")

var registry = struct {
	sync.Mutex
	next     Handle
	contexts map[Handle]*GraphicsContext

	log  *logx.Logger
	ring *logx.Ring
	// retired loggers were replaced by InitLogging but may still be held by
	// open contexts.
	retired []*logx.Logger
}{contexts: make(map[Handle]*GraphicsContext)}

// InitLogging sets the logger used by contexts opened without one. sink is
// "stdout", "ring" or a file path. Until it runs, nothing is logged. Contexts
// opened earlier keep their logger; its sink is closed once the last of them
// is closed.
func InitLogging(sink string, level logx.Level, ringSize int) Status {
	log, ring, err := logx.Open(sink, level, ringSize)
	if err != nil {
		return StatusFailure
	}

	registry.Lock()
	if registry.log != nil {
		registry.retired = append(registry.retired, registry.log)
	}
	registry.log, registry.ring = log, ring
	closeRetired()
	registry.Unlock()

	log.Info(logx.General, "logging initialized", "sink", sink, "level", log.Level())
	return StatusSuccess
}

// closeRetired closes retired loggers no open context uses. The registry
// lock must be held.
func closeRetired() {
	kept := registry.retired[:0]
	for _, l := range registry.retired {
		if loggerInUse(l) {
			kept = append(kept, l)
			continue
		}
		_ = l.Close()
	}
	registry.retired = kept
}

func loggerInUse(l *logx.Logger) bool {
	for _, ctx := range registry.contexts {
		if ctx.log == l {
			return true
		}
	}
	return false
}

// PollLog pops the oldest message of the ring sink.
func PollLog() ([]byte, bool) {
	registry.Lock()
	ring := registry.ring
	registry.Unlock()
	if ring == nil {
		return nil, false
	}
	return ring.Pop()
}

// NextLogLen is the byte length of the message PollLog would return next, or
// zero when the ring is empty or not in use.
func NextLogLen() int {
	registry.Lock()
	ring := registry.ring
	registry.Unlock()
	if ring == nil {
		return 0
	}
	return ring.PeekLen()
}

func defaultLogger() *logx.Logger {
	registry.Lock()
	defer registry.Unlock()
	return registry.log
}

// Open creates a GraphicsContext and returns its handle.
func Open(cfg Config, win Window, surfaces SurfaceFactory) (Handle, Status) {
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}
	ctx, err := NewGraphicsContext(cfg, win, surfaces)
	if err != nil {
		cfg.Logger.Error(logx.General, "open failed", "err", err)
		return 0, StatusFailure
	}

	registry.Lock()
	defer registry.Unlock()
	registry.next++
	h := registry.next
	registry.contexts[h] = ctx
	return h, StatusSuccess
}

func lookup(h Handle) (*GraphicsContext, error) {
	registry.Lock()
	defer registry.Unlock()
	ctx, ok := registry.contexts[h]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "handle %d", h)
	}
	return ctx, nil
}

// Draw renders one frame on the context behind h.
func Draw(h Handle) Status {
	ctx, err := lookup(h)
	if err != nil {
		defaultLogger().Warn(logx.General, "draw", "err", err)
		return StatusFailure
	}
	return StatusOf(ctx.DrawFrame())
}

// Close destroys the context behind h and forgets the handle.
func Close(h Handle) Status {
	registry.Lock()
	ctx, ok := registry.contexts[h]
	delete(registry.contexts, h)
	registry.Unlock()
	if !ok {
		defaultLogger().Warn(logx.General, "close", "err", errors.Wrapf(ErrUnknownHandle, "handle %d", h))
		return StatusFailure
	}
	err := ctx.Destroy()

	registry.Lock()
	closeRetired()
	registry.Unlock()
	return StatusOf(err)
}

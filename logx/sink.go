package logx

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	SinkStdout = "stdout"
	SinkRing   = "ring"
)

// Open builds a Logger for a sink: "stdout" (or empty), "ring", or a file
// path opened for appending. The ring is returned when that sink is chosen.
func Open(sink string, level Level, ringSize int) (*Logger, *Ring, error) {
	switch sink {
	case "", SinkStdout:
		return New(os.Stdout, level), nil, nil
	case SinkRing:
		ring := NewRing(ringSize)
		return New(ring, level), ring, nil
	}
	file, err := os.OpenFile(sink, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "logx: open sink %s", sink)
	}
	l := New(file, level)
	l.closer = file
	return l, nil, nil
}

var _ io.Writer = (*Ring)(nil)

package vkframe

import "github.com/andewx/vkframe/logx"

// releaser runs teardown functions in the reverse order they were pushed.
type releaser struct {
	names []string
	fns   []func()
	log   *logx.Logger
}

func (r *releaser) push(name string, fn func()) {
	r.names = append(r.names, name)
	r.fns = append(r.fns, fn)
}

func (r *releaser) len() int {
	return len(r.fns)
}

// release empties the stack. Calling it again is a no-op.
func (r *releaser) release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.log.Debug(logx.General, "release", "object", r.names[i])
		r.fns[i]()
	}
	r.names, r.fns = nil, nil
}

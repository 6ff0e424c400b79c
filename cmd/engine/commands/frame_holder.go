package commands

import (
	"sync"

	"github.com/gridsnake/engine/controller"
)

// frameHolder collects frames off the socket reader so the consumer can
// walk them in order at its own pace. The first frame is also handed over
// a buffered channel, which gives watchers a handshake to wait on.
type frameHolder struct {
	sync.RWMutex
	frames []*controller.Frame
	ffc    chan *controller.Frame
}

func (fh *frameHolder) append(frame *controller.Frame) {
	fh.Lock()
	defer fh.Unlock()

	if len(fh.frames) == 0 {
		if fh.ffc == nil {
			fh.ffc = make(chan *controller.Frame, 1)
		}
		fh.ffc <- frame
		close(fh.ffc)
	}

	fh.frames = append(fh.frames, frame)
}

func (fh *frameHolder) get(index int) *controller.Frame {
	fh.RLock()
	defer fh.RUnlock()

	if index < 0 || index >= len(fh.frames) {
		return nil
	}

	return fh.frames[index]
}

func (fh *frameHolder) initialFrame() <-chan *controller.Frame {
	fh.Lock()
	defer fh.Unlock()

	if fh.ffc == nil {
		fh.ffc = make(chan *controller.Frame, 1)
	}
	return fh.ffc
}

func (fh *frameHolder) count() int {
	fh.RLock()
	defer fh.RUnlock()

	return len(fh.frames)
}

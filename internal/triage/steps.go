package triage

// Stream is a bounded, ordered channel of progress steps for callers that
// prefer draining a channel over registering a callback. The pipeline is
// strictly sequential, so channel FIFO order matches emission order; a full
// buffer blocks the pipeline until the consumer catches up.
type Stream struct {
	ch chan ProgressStep
}

// NewStream creates a stream with the given buffer size. Size 0 makes every
// emission rendezvous with the consumer.
func NewStream(size int) *Stream {
	return &Stream{ch: make(chan ProgressStep, size)}
}

// Step enqueues one progress step. It is the StepFunc to pass into a run.
func (s *Stream) Step(step ProgressStep) {
	s.ch <- step
}

// C is the channel to drain.
func (s *Stream) C() <-chan ProgressStep {
	return s.ch
}

// Close marks the stream finished. Call after the run returns, never before.
func (s *Stream) Close() {
	close(s.ch)
}

package process

import (
	"fmt"
	"os"
)

// SpawnError reports that the child failed before it became the SUT.
// Message is what the child wrote to the internal error pipe.
type SpawnError struct {
	Message string
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("sut execution failed: %s", e.Message)
}

// SignalReceivedError reports that a tracked signal interrupted the run. The
// SUT has been killed and reaped.
type SignalReceivedError struct {
	Signal os.Signal
}

func (e *SignalReceivedError) Error() string {
	return fmt.Sprintf("signal received: %v", e.Signal)
}

package mailbox

import (
	"errors"
	"fmt"
)

var ErrNoIDs = errors.New("no message ids given")

// PartialBatchFailure reports the ids of a batch that could not be processed.
type PartialBatchFailure struct {
	Total    int
	Failures []FailedMove
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%d of %d messages failed", len(e.Failures), e.Total)
}

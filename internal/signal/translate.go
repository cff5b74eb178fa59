// Package signal converts raw classifier output into lagged entry/exit
// series for simulation.
package signal

import (
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Translate converts predicted labels into entry and exit booleans with a
// one-period lag: a decision made at the close of period t-1 is acted on at
// the open of period t. entries[t] is true when label[t-1] == 1 and
// exits[t] when label[t-1] == 0. Period 0 has no prior label and is always
// false/false. The lag is part of the contract; collapsing it to
// same-period action would let the simulation trade on information it does
// not yet have.
func Translate(labels []int) (entries, exits []bool, err error) {
	entries = make([]bool, len(labels))
	exits = make([]bool, len(labels))

	for t, label := range labels {
		if label != 0 && label != 1 {
			return nil, nil, errors.Newf(errors.ErrCodeInvalidLabel,
				"label at position %d is %d, want 0 or 1", t, label)
		}

		if t == 0 {
			continue
		}

		entries[t] = labels[t-1] == 1
		exits[t] = labels[t-1] == 0
	}

	return entries, exits, nil
}

package dataset

import (
	"math"

	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// Split partitions a Frame chronologically into train and test parts at
// floor(N * (1 - testFraction)). The split never shuffles or samples: rows
// keep their order, every train timestamp precedes every test timestamp,
// and the same cut is used by model training and by the out-of-sample
// backtest.
func Split(frame *Frame, testFraction float64) (train, test *Frame, err error) {
	if frame == nil || frame.Len() == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidSplit, "cannot split an empty frame")
	}

	if testFraction < 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, errors.Newf(errors.ErrCodeInvalidSplit,
			"test fraction %v outside [0, 1)", testFraction)
	}

	cut := int(math.Floor(float64(frame.Len()) * (1 - testFraction)))

	train, err = frame.Slice(0, cut)
	if err != nil {
		return nil, nil, err
	}

	test, err = frame.Slice(cut, frame.Len())
	if err != nil {
		return nil, nil, err
	}

	return train, test, nil
}

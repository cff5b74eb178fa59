package types

import "time"

// PriceBar is a single OHLCV candle. Time is always UTC and aligned to the
// bar's bucket boundary. Sequences of PriceBar handed between pipeline
// stages must be strictly ascending with unique timestamps.
type PriceBar struct {
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

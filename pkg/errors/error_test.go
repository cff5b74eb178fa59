package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestErrorFormatting() {
	err := New(ErrCodeMalformedSeries, "timestamps are not ascending")
	suite.Assert().Equal("[100] timestamps are not ascending", err.Error())

	wrapped := Wrap(ErrCodeQueryFailed, "query failed", err)
	suite.Assert().Contains(wrapped.Error(), "[202] query failed")
	suite.Assert().Contains(wrapped.Error(), "timestamps are not ascending")
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := New(ErrCodeSentimentParse, "bad reply")
	wrapped := Wrapf(ErrCodeSentimentEmpty, cause, "batch %d failed", 3)

	suite.Assert().ErrorIs(wrapped, wrapped)
	suite.Assert().Equal(cause, wrapped.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Assert().Equal(ErrCodeInvalidSplit, GetCode(New(ErrCodeInvalidSplit, "bad fraction")))
	suite.Assert().Equal(ErrCodeUnknown, GetCode(fmt.Errorf("plain error")))
	suite.Assert().Equal(ErrCodeUnknown, GetCode(nil))

	// The code survives wrapping with the standard library.
	wrapped := fmt.Errorf("outer: %w", New(ErrCodeInvalidHorizon, "bad horizon"))
	suite.Assert().True(HasCode(wrapped, ErrCodeInvalidHorizon))
}

func (suite *ErrorTestSuite) TestCategoryHelpers() {
	suite.Assert().True(IsMalformedInput(New(ErrCodeMalformedSeries, "m")))
	suite.Assert().True(IsMalformedInput(New(ErrCodeInvalidLabel, "m")))
	suite.Assert().False(IsMalformedInput(New(ErrCodeQueryFailed, "m")))

	suite.Assert().True(IsInvariantViolation(New(ErrCodeInvariantViolation, "m")))
	suite.Assert().False(IsInvariantViolation(New(ErrCodeMalformedSeries, "m")))
}

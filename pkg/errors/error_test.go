package errors

import (
	"errors"
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

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeEmptySeries, "price series %q is empty", "prices")
	suite.NotNil(err)
	suite.Equal(ErrCodeEmptySeries, err.Code)
	suite.Equal(`price series "prices" is empty`, err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeWindowFailed, "window backtest failed", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeWindowFailed, err.Code)
	suite.Equal("window backtest failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeSampleFailed, cause, "sample %d failed", 42)
	suite.NotNil(err)
	suite.Equal(ErrCodeSampleFailed, err.Code)
	suite.Equal("sample 42 failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInsufficientData, "not enough bars", cause)
	suite.Equal("[200] not enough bars: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeSimulationFailed, "simulation failed", cause)
	suite.Equal(cause, errors.Unwrap(err))
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeSignalNotAligned, "signal timestamp not in price index")
	suite.Equal(ErrCodeSignalNotAligned, GetCode(err))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain error")))
}

func (suite *ErrorTestSuite) TestGetCodeWrappedInStandardError() {
	err := fmt.Errorf("outer: %w", New(ErrCodeAllWindowsFailed, "all windows failed"))
	suite.Equal(ErrCodeAllWindowsFailed, GetCode(err))
	suite.True(HasCode(err, ErrCodeAllWindowsFailed))
	suite.False(HasCode(err, ErrCodeWindowFailed))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(30, 12, "monte carlo requires more return observations")
	suite.Equal(30, err.Required)
	suite.Equal(12, err.Actual)
	suite.Equal("monte carlo requires more return observations (need 30 observations, have 12)", err.Error())
	suite.True(IsInsufficientDataError(err))
}

func (suite *ErrorTestSuite) TestInsufficientDataErrorf() {
	err := NewInsufficientDataErrorf(100, 99, "walk-forward needs train+test bars (%d+%d)", 70, 30)
	suite.Equal(100, err.Required)
	suite.Equal(99, err.Actual)
	suite.Contains(err.Error(), "walk-forward needs train+test bars (70+30)")
	suite.True(IsInsufficientDataError(err))
}

func (suite *ErrorTestSuite) TestIsInsufficientDataErrorWrapped() {
	inner := NewInsufficientDataError(30, 0, "empty returns")
	err := fmt.Errorf("monte carlo: %w", inner)
	suite.True(IsInsufficientDataError(err))
	suite.False(IsInsufficientDataError(errors.New("other")))
}

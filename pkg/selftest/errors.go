package selftest

import "errors"

var (
	// ErrUnknownSuite indicates a suite name that is not registered.
	ErrUnknownSuite = errors.New("unknown suite")

	// ErrSuiteFailed indicates at least one suite failed.
	ErrSuiteFailed = errors.New("suite failed")

	// ErrUnexpected indicates a scenario observed an outcome other than the
	// expected one.
	ErrUnexpected = errors.New("unexpected outcome")
)

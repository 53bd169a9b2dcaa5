package client

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New for an unusable configuration.
var ErrInvalidConfig = errors.New("invalid client config")

// DataRetrievalError is returned when the upstream answers with a status
// outside [200, 400). It is never retried by this package.
type DataRetrievalError struct {
	// Service is the name of the action that issued the request.
	Service string

	StatusCode int
	Method     string
	URL        string

	// Body is the beginning of the upstream error body, if any.
	Body string
}

// Error implements the error interface.
func (e *DataRetrievalError) Error() string {
	return fmt.Sprintf("WB service %s failed to retrieve data (status %d)", e.Service, e.StatusCode)
}

// AsDataRetrievalError unwraps err into a *DataRetrievalError if it holds one.
func AsDataRetrievalError(err error) (*DataRetrievalError, bool) {
	var dre *DataRetrievalError
	if errors.As(err, &dre) {
		return dre, true
	}
	return nil, false
}

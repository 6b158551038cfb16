package source

import "errors"

var UnsupportedSourceError = errors.New("Data Source does not support this query")

// ErrMalformedResponse is returned when an upstream response lacks the
// structure it is expected to have, or carries an upstream error element.
var ErrMalformedResponse = errors.New("malformed upstream response")

package wire

import "errors"

// ErrVarintTruncated indicates the input data was truncated.
var ErrVarintTruncated = errors.New("protobit: data truncated")

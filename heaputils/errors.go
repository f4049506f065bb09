package heaputils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// OutOfMemoryError is the error returned from an allocation strategy when the
// request cannot be satisfied from the remaining free space. It is reported
// to the caller as-is and is never retried internally with different
// parameters.
var OutOfMemoryError error = errors.New("out of heap memory")

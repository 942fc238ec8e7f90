package space

import "errors"

var (
	ErrShapeMismatch      = errors.New("space: input shapes do not agree")
	ErrNonFinite          = errors.New("space: non-finite value in input")
	ErrNonBinaryLabels    = errors.New("space: labels must contain exactly the classes 0 and 1")
	ErrGroundTruthMissing = errors.New("space: ground truth is not among the row candidates")
	ErrNoRepairs          = errors.New("space: at least one repair matrix is required")
)

package healthrecord

import "errors"

var (
	ErrRecordNotFound   = errors.New("health record not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
)

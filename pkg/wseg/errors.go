package wseg

import "errors"

var (
	ErrBadMagic   = errors.New("wseg: bad segment magic")
	ErrMisaligned = errors.New("wseg: segment offset not aligned to 16K boundary")
	ErrCorrupt    = errors.New("wseg: corrupt weights segment")
)

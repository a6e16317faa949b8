package vm

import "tlog.app/go/errors"

var (
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrUninitialized    = errors.New("read of uninitialized address")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrBadInput         = errors.New("bad input")

	// ErrFrameUnderflow means the program broke call discipline, ENDFUNC without ERA for example.
	ErrFrameUnderflow = errors.New("frame underflow")
)

package errs

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	ServerInternalError = 500

	// 帧相关
	FrameDecodeError   = 1001
	FrameDispatchError = 1002
	ConnClosedError    = 1003
)

var (
	ErrBadRequest    = NewCodeError(BadRequest, "bad request")
	ErrUnauthorized  = NewCodeError(Unauthorized, "unauthorized")
	ErrTokenExpired  = NewCodeError(Unauthorized, "token invalid or expired")
	ErrForbidden     = NewCodeError(Forbidden, "forbidden")
	ErrNotFound      = NewCodeError(NotFound, "not found")
	ErrInternal      = NewCodeError(ServerInternalError, "internal server error")
	ErrFrameDecode   = NewCodeError(FrameDecodeError, "malformed frame")
	ErrFrameDispatch = NewCodeError(FrameDispatchError, "frame dispatch failed")
	ErrConnClosed    = NewCodeError(ConnClosedError, "connection closed")
)

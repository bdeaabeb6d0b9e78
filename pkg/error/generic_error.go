package error

// GenericError is implemented by every error that knows how to answer over HTTP.
type GenericError interface {
	ErrCode() string
	StatusCode() int
	Error() string
}

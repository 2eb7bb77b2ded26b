package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	PermissionDenied Code = 100002
	NotFound         Code = 100003
	AlreadyExists    Code = 100004
	Internal         Code = 100005
	Unavailable      Code = 100006

	// Draw codes
	InsufficientData Code = 200001
	AlreadyDrawn     Code = 200002
)

package resume

import "errors"

// 管道的错误分类。所有错误对当前调用都是终态，内部不做任何重试。
// 调用方用 errors.Is 区分种类，用 Error() 文本直接展示给用户。
var (
	ErrConfigNotFound  = errors.New("resume config not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUpload          = errors.New("upload generated pdf failed")
	ErrVersionRecord   = errors.New("record resume version failed")
)

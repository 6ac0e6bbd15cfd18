package xtable

import "errors"

// 属性表编解码相关错误。
var (
	// ErrParseFailed 表示 properties 文本解析失败。
	ErrParseFailed = errors.New("xtable: failed to parse properties text")
)

package types

import (
	"errors"
	"fmt"
)

// ErrNotFound 资源不存在或不属于当前用户.
// 越权访问同样返回它，避免向外暴露资源是否存在.
var ErrNotFound = errors.New("resource not found")

// CountMismatchError 图片数量与记录数量不一致，匹配在任何写入前被拒绝.
type CountMismatchError struct {
	Images  int
	Records int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("number of images (%d) does not match number of records (%d)", e.Images, e.Records)
}

package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：条件更新未命中任何行（记录已被其他操作修改）
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrObjectNotFound 对象存储中不存在指定 key
var ErrObjectNotFound = errors.New("对象不存在")

package service

import (
	"errors"
	"fmt"
)

// 业务错误
var (
	ErrStoreNotFound    = errors.New("店铺不存在")
	ErrCustomerNotFound = errors.New("客户不存在")
	ErrNoteNotFound     = errors.New("备注不存在")
	ErrListingNotFound  = errors.New("商品不存在")
	ErrInvalidState     = errors.New("授权状态无效或已过期")
	ErrNoShops          = errors.New("该 Etsy 账号下没有店铺")
	ErrInvalidInput     = errors.New("参数错误")
)

// PersistenceError 本地写入失败，当前工作单元回滚
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("数据写入失败 [%s]: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

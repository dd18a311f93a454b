package commonrepo

import (
	"errors"
	"strings"
)

// ErrBusy 单写者存储被占用，调用方跳过本次写入稍后重试
var ErrBusy = errors.New("store busy")

// TranslateBusy 将 SQLite 锁冲突映射为 ErrBusy
func TranslateBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") {
		return errors.Join(ErrBusy, err)
	}
	return err
}

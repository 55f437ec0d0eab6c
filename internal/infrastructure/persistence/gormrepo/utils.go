package gormrepo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为唯一索引冲突
// - MySQL 1062: Duplicate entry 'xxx' for key 'yyy'
// - PostgreSQL 23505: duplicate key value violates unique constraint
// - SQLite: UNIQUE constraint failed
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// isLockTimeout 判断是否为行锁等待超时
// - MySQL 1205: Lock wait timeout exceeded
// - PostgreSQL 55P03: canceling statement due to lock timeout
// - SQLite: database is locked
func isLockTimeout(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "55P03") ||
		strings.Contains(msg, "database is locked")
}

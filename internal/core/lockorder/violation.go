package lockorder

import (
	"sync/atomic"

	"github.com/stbowers/Starlight-sub001/internal/util/logger"
)

var log = logger.Logger("core/lockorder")

var (
	violations atomic.Uint64
	strict     atomic.Bool
)

// SetStrict 设置严格模式
//
// 严格模式下任何顺序违规在记录日志后直接 panic，
// 用于开发构建中让潜在死锁立即暴露。
func SetStrict(on bool) {
	strict.Store(on)
}

// Strict 返回是否处于严格模式
func Strict() bool {
	return strict.Load()
}

// Violations 返回进程启动以来的违规总数
func Violations() uint64 {
	return violations.Load()
}

// violation 记录一次违规并返回原错误
func violation(err error) error {
	violations.Add(1)
	log.Error("锁顺序违规", "err", err)
	if strict.Load() {
		panic(err)
	}
	return err
}

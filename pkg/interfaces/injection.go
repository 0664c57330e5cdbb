package interfaces

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// InjectionPort 注入原语
//
// 平台相关，内部实现不在本模块范围内。协调器只记录返回的错误。
type InjectionPort interface {
	Inject(ctx context.Context, params types.InjectionParams) error
}

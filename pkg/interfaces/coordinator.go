package interfaces

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// Coordinator 连接建立协调器
type Coordinator interface {
	// Start 开始消费通知事件
	Start(ctx context.Context) error

	// Stop 取消进行中的会合交换并等待所有任务结束
	Stop(ctx context.Context) error

	// State 返回设备级状态
	State() types.DeviceState

	// Device 返回设备注册状态快照
	Device() types.Device

	// Outcomes 返回最近完成的连接请求
	Outcomes() []types.RequestOutcome
}

package types

import "strconv"

// NatPolicy NAT 策略（三态）
type NatPolicy int

const (
	// NatPolicyUnconfigured 未配置
	NatPolicyUnconfigured NatPolicy = iota
	// NatPolicyBehindNAT 设备在 NAT 之后
	NatPolicyBehindNAT
	// NatPolicyPublic 设备不在 NAT 之后
	NatPolicyPublic
)

// String 返回策略字符串表示
func (p NatPolicy) String() string {
	switch p {
	case NatPolicyBehindNAT:
		return "behind-nat"
	case NatPolicyPublic:
		return "public"
	default:
		return "unconfigured"
	}
}

// BehindNAT 解析为布尔值
//
// 未配置时按在 NAT 之后处理。
func (p NatPolicy) BehindNAT() bool {
	return p != NatPolicyPublic
}

// Configured 是否已显式配置
func (p NatPolicy) Configured() bool {
	return p != NatPolicyUnconfigured
}

// SettingValue 返回存储用的值（"true"/"false"），未配置返回空串
func (p NatPolicy) SettingValue() string {
	switch p {
	case NatPolicyBehindNAT:
		return "true"
	case NatPolicyPublic:
		return "false"
	default:
		return ""
	}
}

// NatPolicyFromBool 由布尔值构造策略
func NatPolicyFromBool(behindNAT bool) NatPolicy {
	if behindNAT {
		return NatPolicyBehindNAT
	}
	return NatPolicyPublic
}

// ParseNatPolicy 解析存储中的值
//
// 空串或无法解析的值均视为未配置。
func ParseNatPolicy(value string) NatPolicy {
	if value == "" {
		return NatPolicyUnconfigured
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return NatPolicyUnconfigured
	}
	return NatPolicyFromBool(b)
}

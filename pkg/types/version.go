package types

// Version natpeer 版本号
const Version = "0.3.0"

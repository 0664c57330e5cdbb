// Package directory 实现目录服务
//
// 目录保存设备（推送 token）与设备暴露的服务，数据持久化在 BadgerDB 中：
//
//	d/<deviceID>  -> Device
//	v/<serviceID> -> Service
//
// REST 接口：
//
//	GET    /api                 -> 200 {"status":"OK"}
//	POST   /api/devices         gcm=<token>           -> 201 {"_id","gcm"}
//	DELETE /api/devices/{id}    -> 200 | 404
//	POST   /api/services        name=<n>&device=<id>  -> 201 {"_id","name","device"}
//	DELETE /api/services/{id}   -> 200 | 404
package directory

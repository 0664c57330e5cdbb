// Package directory 实现目录服务 REST 客户端
//
// 接口约定：
//
//	POST   {base}/devices        gcm=<token>              -> 201 {"_id": ...}
//	DELETE {base}/devices/{id}                            -> 200
//	POST   {base}/services       name=<name>&device=<id>  -> 201 {"_id": ...}
//	DELETE {base}/services/{id}                           -> 200
//
// 其他状态码一律视为失败，客户端不重试。
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/directory")

// maxBodySize 响应体读取上限
const maxBodySize = 4096

// Client 目录服务客户端
type Client struct {
	base   string
	client *http.Client
}

var _ pkgif.DirectoryClient = (*Client)(nil)

// New 创建目录服务客户端
func New(cfg config.DirectoryConfig) *Client {
	return NewWithHTTPClient(cfg.BaseURL, &http.Client{
		Timeout: cfg.Timeout.Duration(),
		Transport: &http.Transport{
			MaxIdleConns:    4,
			IdleConnTimeout: 30 * time.Second,
		},
	})
}

// NewWithHTTPClient 使用指定的 http.Client 创建客户端
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: hc,
	}
}

// RegisterDevice 用推送身份注册设备
func (c *Client) RegisterDevice(ctx context.Context, pushToken string) (string, error) {
	id, err := c.create(ctx, "register device", "/devices", url.Values{"gcm": {pushToken}})
	if err != nil {
		logger.Warn("设备注册失败", "error", err)
		return "", err
	}
	logger.Info("设备已注册", "device", id)
	return id, nil
}

// UnregisterDevice 注销设备
func (c *Client) UnregisterDevice(ctx context.Context, deviceID string) error {
	if err := c.delete(ctx, "unregister device", "/devices/"+url.PathEscape(deviceID)); err != nil {
		logger.Warn("设备注销失败", "device", deviceID, "error", err)
		return err
	}
	logger.Info("设备已注销", "device", deviceID)
	return nil
}

// RegisterService 注册服务
func (c *Client) RegisterService(ctx context.Context, name, deviceID string) (string, error) {
	id, err := c.create(ctx, "register service", "/services", url.Values{
		"name":   {name},
		"device": {deviceID},
	})
	if err != nil {
		logger.Warn("服务注册失败", "service", name, "error", err)
		return "", err
	}
	logger.Debug("服务已注册", "service", name, "remote_id", id)
	return id, nil
}

// UnregisterService 注销服务
func (c *Client) UnregisterService(ctx context.Context, remoteID string) error {
	if err := c.delete(ctx, "unregister service", "/services/"+url.PathEscape(remoteID)); err != nil {
		logger.Warn("服务注销失败", "remote_id", remoteID, "error", err)
		return err
	}
	return nil
}

// Close 关闭空闲连接
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// ============================================================================
//                              内部方法
// ============================================================================

// create 发送表单 POST，期望 201 与 {"_id": ...}
func (c *Client) create(ctx context.Context, op, path string, form url.Values) (string, error) {
	target := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &types.TransportError{Op: op, Addr: target, Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, op, http.StatusCreated)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", &types.ProtocolError{Op: op, Cause: err}
	}
	if created.ID == "" {
		return "", &types.ProtocolError{Op: op, Cause: fmt.Errorf("response without _id")}
	}
	return created.ID, nil
}

// delete 发送 DELETE，期望 200
func (c *Client) delete(ctx context.Context, op, path string) error {
	target := c.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return &types.TransportError{Op: op, Addr: target, Cause: err}
	}
	_, err = c.do(req, op, http.StatusOK)
	return err
}

// do 执行请求并检查状态码
func (c *Client) do(req *http.Request, op string, want int) ([]byte, error) {
	req.Header.Set("User-Agent", "natpeer/"+types.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: op, Addr: req.URL.String(), Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &types.TransportError{Op: op, Addr: req.URL.String(), Cause: err}
	}
	if resp.StatusCode != want {
		return nil, &types.DirectoryError{Op: op, Status: resp.StatusCode}
	}
	return body, nil
}

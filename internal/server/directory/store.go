package directory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dep2p/go-natpeer/internal/core/storage"
	"github.com/dep2p/go-natpeer/internal/core/storage/kv"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// ErrUnknownDevice 服务引用了不存在的设备
var ErrUnknownDevice = errors.New("unknown device")

// Device 目录中的设备
type Device struct {
	ID  string `json:"_id"`
	GCM string `json:"gcm"`
}

// Service 目录中的服务
type Service struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Device string `json:"device"`
}

// Store 目录存储
type Store struct {
	devices  *kv.Store
	services *kv.Store
}

// NewStore 创建目录存储
func NewStore(eng storage.Engine) *Store {
	return &Store{
		devices:  storage.NewKVStore(eng, storage.PrefixDevices),
		services: storage.NewKVStore(eng, storage.PrefixServices),
	}
}

func newID() string {
	return uuid.NewString()
}

// CreateDevice 创建设备
func (s *Store) CreateDevice(gcm string) (Device, error) {
	if gcm == "" {
		return Device{}, errors.New("gcm cannot be empty")
	}
	d := Device{ID: newID(), GCM: gcm}
	if err := s.devices.PutJSON([]byte(d.ID), d); err != nil {
		return Device{}, fmt.Errorf("save device: %w", err)
	}
	return d, nil
}

// Device 按 ID 读取设备
func (s *Store) Device(id string) (Device, error) {
	var d Device
	if err := s.devices.GetJSON([]byte(id), &d); err != nil {
		if storage.IsNotFound(err) {
			return Device{}, types.ErrNotFound
		}
		return Device{}, err
	}
	return d, nil
}

// DeleteDevice 删除设备及其全部服务
func (s *Store) DeleteDevice(id string) error {
	if _, err := s.Device(id); err != nil {
		return err
	}
	owned, err := s.servicesOf(id)
	if err != nil {
		return err
	}
	for _, svc := range owned {
		if err := s.services.Delete([]byte(svc.ID)); err != nil && !storage.IsNotFound(err) {
			return fmt.Errorf("delete service %s: %w", svc.ID, err)
		}
	}
	return s.devices.Delete([]byte(id))
}

// CreateService 为已存在的设备创建服务
func (s *Store) CreateService(name, deviceID string) (Service, error) {
	if name == "" || deviceID == "" {
		return Service{}, errors.New("name and device cannot be empty")
	}
	if _, err := s.Device(deviceID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return Service{}, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
		}
		return Service{}, err
	}
	svc := Service{ID: newID(), Name: name, Device: deviceID}
	if err := s.services.PutJSON([]byte(svc.ID), svc); err != nil {
		return Service{}, fmt.Errorf("save service: %w", err)
	}
	return svc, nil
}

// DeleteService 删除服务
func (s *Store) DeleteService(id string) error {
	ok, err := s.services.Has([]byte(id))
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrNotFound
	}
	return s.services.Delete([]byte(id))
}

// FindService 按名称查找服务
//
// 多个设备注册了同名服务时返回遍历到的第一个。
func (s *Store) FindService(name string) (Service, error) {
	var found *Service
	errStop := errors.New("stop")
	err := s.services.Iterate(func(_, value []byte) error {
		var svc Service
		if err := json.Unmarshal(value, &svc); err != nil {
			return nil
		}
		if svc.Name == name {
			found = &svc
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return Service{}, err
	}
	if found == nil {
		return Service{}, types.ErrNotFound
	}
	return *found, nil
}

func (s *Store) servicesOf(deviceID string) ([]Service, error) {
	var out []Service
	err := s.services.Iterate(func(_, value []byte) error {
		var svc Service
		if err := json.Unmarshal(value, &svc); err == nil && svc.Device == deviceID {
			out = append(out, svc)
		}
		return nil
	})
	return out, err
}

// Route 解析服务名对应的推送 token
func (s *Store) Route(serviceName string) (Service, Device, error) {
	svc, err := s.FindService(serviceName)
	if err != nil {
		return Service{}, Device{}, err
	}
	dev, err := s.Device(svc.Device)
	if err != nil {
		return Service{}, Device{}, err
	}
	return svc, dev, nil
}

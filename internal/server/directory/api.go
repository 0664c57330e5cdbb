package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("server/directory")

// API 目录 REST 接口
type API struct {
	store *Store
}

// NewAPI 创建 REST 接口
func NewAPI(store *Store) *API {
	return &API{store: store}
}

// Register 在 router 上注册路由
func (a *API) Register(router *mux.Router) {
	router.HandleFunc("/api", a.status).Methods(http.MethodGet)
	router.HandleFunc("/api/devices", a.createDevice).Methods(http.MethodPost)
	router.HandleFunc("/api/devices/{id}", a.deleteDevice).Methods(http.MethodDelete)
	router.HandleFunc("/api/services", a.createService).Methods(http.MethodPost)
	router.HandleFunc("/api/services/{id}", a.deleteService).Methods(http.MethodDelete)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("写响应失败", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"err": msg})
}

func (a *API) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (a *API) createDevice(w http.ResponseWriter, r *http.Request) {
	gcm := r.PostFormValue("gcm")
	if gcm == "" {
		writeError(w, http.StatusBadRequest, "gcm required")
		return
	}
	d, err := a.store.CreateDevice(gcm)
	if err != nil {
		logger.Error("创建设备失败", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("设备已创建", "device", d.ID)
	writeJSON(w, http.StatusCreated, d)
}

func (a *API) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.store.DeleteDevice(id); err != nil {
		a.deleteFailed(w, "device", id, err)
		return
	}
	logger.Info("设备已删除", "device", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

func (a *API) createService(w http.ResponseWriter, r *http.Request) {
	name, device := r.PostFormValue("name"), r.PostFormValue("device")
	if name == "" || device == "" {
		writeError(w, http.StatusBadRequest, "name and device required")
		return
	}
	svc, err := a.store.CreateService(name, device)
	if err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			writeError(w, http.StatusBadRequest, "unknown device")
			return
		}
		logger.Error("创建服务失败", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("服务已创建", "service", svc.Name, "id", svc.ID, "device", svc.Device)
	w.Header().Set("Connection", "close")
	writeJSON(w, http.StatusCreated, svc)
}

func (a *API) deleteService(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.store.DeleteService(id); err != nil {
		a.deleteFailed(w, "service", id, err)
		return
	}
	logger.Info("服务已删除", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

func (a *API) deleteFailed(w http.ResponseWriter, kind, id string, err error) {
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	logger.Error("删除失败", "kind", kind, "id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

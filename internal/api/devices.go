package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/device"
)

// deviceRequest is the request body for creating or updating a device.
type deviceRequest struct {
	Title  string  `json:"title"`
	Type   string  `json:"type"`
	Power  float64 `json:"power"`
	Active bool    `json:"active"`
	RoomID *string `json:"room_id"`
}

// handleListDevices returns all devices, optionally filtered by type or
// room via query parameters.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		t, err := device.ParseType(typeStr)
		if err != nil {
			writeBadRequest(w, "unknown device type")
			return
		}
		devices, err := s.devices.ListByType(ctx, t)
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	if roomID := r.URL.Query().Get("room_id"); roomID != "" {
		devices, err := s.devices.ListByRoom(ctx, roomID)
		if err != nil {
			writeInternalError(w, "failed to list devices")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
		return
	}

	devices, err := s.devices.List(ctx)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.devices.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleCreateDevice creates a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t, err := device.ParseType(req.Type)
	if err != nil {
		writeBadRequest(w, "unknown device type")
		return
	}

	d := &device.Device{
		Title:  req.Title,
		Type:   t,
		Power:  req.Power,
		Active: req.Active,
		RoomID: req.RoomID,
	}
	if err := device.Validate(d); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Create(r.Context(), d); err != nil {
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// handleUpdateDevice replaces a device's mutable fields.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t, err := device.ParseType(req.Type)
	if err != nil {
		writeBadRequest(w, "unknown device type")
		return
	}

	d := &device.Device{
		ID:     id,
		Title:  req.Title,
		Type:   t,
		Power:  req.Power,
		Active: req.Active,
		RoomID: req.RoomID,
	}
	if err := device.Validate(d); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Update(r.Context(), d); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// handleActivateDevice turns a device on.
func (s *Server) handleActivateDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceActive(w, r, true)
}

// handleDeactivateDevice turns a device off.
func (s *Server) handleDeactivateDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceActive(w, r, false)
}

func (s *Server) setDeviceActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")

	if err := s.devices.SetActive(r.Context(), id, active); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}

// handleDeleteDevice removes a device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.devices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/room"
)

// roomRequest is the request body for creating or updating a room.
type roomRequest struct {
	Location  string  `json:"location"`
	ManagerID *string `json:"manager_id"`
}

// handleListRooms returns all rooms ordered by location.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rm, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}

	writeJSON(w, http.StatusOK, rm)
}

// handleListRoomDevices returns the devices assigned to a room.
func (s *Server) handleListRoomDevices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := s.rooms.Get(ctx, id); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}

	devices, err := s.devices.ListByRoom(ctx, id)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateRoom creates a new room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	rm := &room.Room{
		Location:  req.Location,
		ManagerID: req.ManagerID,
	}
	if err := room.Validate(rm); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.rooms.Create(r.Context(), rm); err != nil {
		writeInternalError(w, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, rm)
}

// handleUpdateRoom replaces a room's mutable fields.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	rm := &room.Room{
		ID:        id,
		Location:  req.Location,
		ManagerID: req.ManagerID,
	}
	if err := room.Validate(rm); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.rooms.Update(r.Context(), rm); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to update room")
		return
	}

	writeJSON(w, http.StatusOK, rm)
}

// handleDeleteRoom removes a room. Devices assigned to it are detached,
// not deleted.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.rooms.Delete(r.Context(), id); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to delete room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

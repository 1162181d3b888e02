package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/mode"
)

// modeRequest is the request body for creating or updating a mode.
type modeRequest struct {
	Type           string `json:"type"`
	MusicType      string `json:"music_type"`
	TargetTemp     *int   `json:"target_temp"`
	TargetHumidity *int   `json:"target_humidity"`
	TargetCO2      *int   `json:"target_co2"`
}

// handleListModes returns all configured modes.
func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	modes, err := s.modes.ListModes(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list modes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modes": modes, "count": len(modes)})
}

// handleGetMode returns a single mode by ID.
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := s.modes.GetMode(r.Context(), id)
	if err != nil {
		if errors.Is(err, mode.ErrNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		writeInternalError(w, "failed to get mode")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// handleCreateMode creates a new mode. Mode types are unique.
func (s *Server) handleCreateMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	m, err := modeFromRequest(&req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.modes.CreateMode(r.Context(), m); err != nil {
		if errors.Is(err, mode.ErrModeTypeExists) {
			writeConflict(w, "a mode with this type already exists")
			return
		}
		writeInternalError(w, "failed to create mode")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// handleUpdateMode updates a mode's targets. The type is immutable.
func (s *Server) handleUpdateMode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	musicType, err := mode.ParseMusicType(req.MusicType)
	if err != nil {
		writeBadRequest(w, "unknown music type")
		return
	}

	m := &mode.Mode{
		ID:             id,
		MusicType:      musicType,
		TargetTemp:     req.TargetTemp,
		TargetHumidity: req.TargetHumidity,
		TargetCO2:      req.TargetCO2,
	}

	if err := s.modes.UpdateMode(r.Context(), m); err != nil {
		if errors.Is(err, mode.ErrNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		writeInternalError(w, "failed to update mode")
		return
	}

	updated, err := s.modes.GetMode(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to get mode")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteMode removes a mode and its rules.
func (s *Server) handleDeleteMode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.modes.DeleteMode(r.Context(), id); err != nil {
		if errors.Is(err, mode.ErrNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		writeInternalError(w, "failed to delete mode")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleActivateMode applies a mode's rules to the device fleet.
func (s *Server) handleActivateMode(w http.ResponseWriter, r *http.Request) {
	t, err := mode.ParseModeType(chi.URLParam(r, "type"))
	if err != nil {
		writeBadRequest(w, "unknown mode type")
		return
	}

	result, err := s.modeSvc.Activate(r.Context(), t)
	if err != nil {
		if errors.Is(err, mode.ErrNoRules) {
			writeNotFound(w, "no rules configured for this mode")
			return
		}
		writeInternalError(w, "failed to activate mode")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleActivateNight switches everything off except climate devices.
func (s *Server) handleActivateNight(w http.ResponseWriter, r *http.Request) {
	changed, err := s.modeSvc.ActivateNight(r.Context())
	if err != nil {
		writeInternalError(w, "failed to activate night mode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices_changed": changed})
}

// handleAllOn activates every device.
func (s *Server) handleAllOn(w http.ResponseWriter, r *http.Request) {
	s.setAllDevices(w, r, true)
}

// handleAllOff deactivates every device.
func (s *Server) handleAllOff(w http.ResponseWriter, r *http.Request) {
	s.setAllDevices(w, r, false)
}

func (s *Server) setAllDevices(w http.ResponseWriter, r *http.Request, active bool) {
	changed, err := s.modeSvc.SetAll(r.Context(), active)
	if err != nil {
		writeInternalError(w, "failed to switch devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices_changed": changed, "active": active})
}

// handleTotalPower reports the summed power draw of active devices.
func (s *Server) handleTotalPower(w http.ResponseWriter, r *http.Request) {
	total, err := s.modeSvc.TotalPowerConsumption(r.Context())
	if err != nil {
		writeInternalError(w, "failed to compute power consumption")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"total_power": total})
}

// ruleRequest is the request body for creating a mode rule.
type ruleRequest struct {
	ModeType       string   `json:"mode_type"`
	DeviceType     string   `json:"device_type"`
	TitlePattern   string   `json:"title_pattern"`
	MinPower       *float64 `json:"min_power"`
	MaxPower       *float64 `json:"max_power"`
	ShouldBeActive bool     `json:"should_be_active"`
	Priority       int      `json:"priority"`
}

// handleListRules returns all mode rules, optionally filtered by mode
// type via the mode_type query parameter.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if typeStr := r.URL.Query().Get("mode_type"); typeStr != "" {
		t, err := mode.ParseModeType(typeStr)
		if err != nil {
			writeBadRequest(w, "unknown mode type")
			return
		}
		rules, err := s.modes.RulesForMode(ctx, t)
		if err != nil {
			writeInternalError(w, "failed to list rules")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
		return
	}

	rules, err := s.modes.ListRules(ctx)
	if err != nil {
		writeInternalError(w, "failed to list rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

// handleCreateRule creates a mode rule.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	modeType, err := mode.ParseModeType(req.ModeType)
	if err != nil {
		writeBadRequest(w, "unknown mode type")
		return
	}

	deviceType, err := device.ParseType(req.DeviceType)
	if err != nil {
		writeBadRequest(w, "unknown device type")
		return
	}

	rule := &mode.Rule{
		ModeType:       modeType,
		DeviceType:     deviceType,
		TitlePattern:   req.TitlePattern,
		MinPower:       req.MinPower,
		MaxPower:       req.MaxPower,
		ShouldBeActive: req.ShouldBeActive,
		Priority:       req.Priority,
	}

	if err := s.modes.CreateRule(r.Context(), rule); err != nil {
		writeInternalError(w, "failed to create rule")
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// handleDeleteRule removes a mode rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.modes.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, mode.ErrRuleNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		writeInternalError(w, "failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// modeFromRequest validates and converts a mode payload.
func modeFromRequest(req *modeRequest) (*mode.Mode, error) {
	modeType, err := mode.ParseModeType(req.Type)
	if err != nil {
		return nil, err
	}
	musicType, err := mode.ParseMusicType(req.MusicType)
	if err != nil {
		return nil, err
	}

	return &mode.Mode{
		Type:           modeType,
		MusicType:      musicType,
		TargetTemp:     req.TargetTemp,
		TargetHumidity: req.TargetHumidity,
		TargetCO2:      req.TargetCO2,
	}, nil
}

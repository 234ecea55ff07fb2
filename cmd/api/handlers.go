package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"rental/house"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleListHouses(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeLackArgument, err.Error())
		return
	}

	page, err := s.houses.ListHouses(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

func (s *Server) handleGetHouse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeLackArgument, "id must be an integer")
		return
	}

	h, err := s.houses.GetHouse(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s.foundStatus, toHouseResponse(h))
}

func (s *Server) handleCreateHouse(w http.ResponseWriter, r *http.Request) {
	var payload createHouseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeLackArgument, "invalid request body")
		return
	}

	req, err := payload.toDomain(s.loc)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	h, err := s.houses.CreateHouse(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHouseResponse(h))
}

// writeServiceError maps service error kinds to transport statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, house.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, house.ErrValidation), errors.Is(err, house.ErrInvalidSort):
		writeError(w, http.StatusBadRequest, codeLackArgument, err.Error())
	case errors.Is(err, house.ErrSyncFailed):
		writeError(w, http.StatusNotAcceptable, codeSyncFailed, house.ErrSyncFailed.Error())
	default:
		s.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// parsePageRequest reads page, size and repeated sort=property[,asc|desc]
// parameters. Missing values are defaulted by the service.
func parsePageRequest(r *http.Request) (house.PageRequest, error) {
	q := r.URL.Query()
	var req house.PageRequest

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return house.PageRequest{}, errors.New("page must be a non-negative integer")
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return house.PageRequest{}, errors.New("size must be a positive integer")
		}
		req.Size = n
	}

	for _, raw := range q["sort"] {
		prop, dir, _ := strings.Cut(raw, ",")
		prop = strings.TrimSpace(prop)
		if prop == "" {
			return house.PageRequest{}, errors.New("sort property must not be empty")
		}
		order := house.Order{Property: prop}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			order.Desc = true
		default:
			return house.PageRequest{}, fmt.Errorf("sort direction %q must be asc or desc", dir)
		}
		req.Sort = append(req.Sort, order)
	}
	return req, nil
}

package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"
)

type gymsRepo interface {
	Add(ctx context.Context, gym Gym) (*Gym, error)
	Update(ctx context.Context, gym *Gym) error
	Get(ctx context.Context, id int) (*Gym, error)
	List(ctx context.Context, params ListParams) (_ []Gym, total int, err error)
}

type ListGymsResponse struct {
	Gyms  []Gym `json:"gyms"`
	Total int   `json:"total"`
}

type GymHandler struct {
	repo gymsRepo
}

func NewGymHandler(repo gymsRepo) *GymHandler {
	return &GymHandler{
		repo: repo,
	}
}

func (handler *GymHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.gym.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var gym Gym
	if err := json.NewDecoder(r.Body).Decode(&gym); err != nil {
		log.Tracef("new gym, unmarshal json params: %s", err)
		http.Error(w, "add gym failed", http.StatusBadRequest)
		return
	}

	if gym.Name == "" {
		http.Error(w, "error, gym name empty", http.StatusBadRequest)
		return
	}

	addedGym, err := handler.repo.Add(ctx, gym)
	if err != nil {
		if errors.Is(err, ErrGymAlreadyExists) {
			http.Error(w, "gym already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add new gym [%s]: %s", gym.Name, err)
		http.Error(w, "error, failed to add new gym", http.StatusInternalServerError)
		return
	}

	gymJson, err := json.Marshal(addedGym)
	if err != nil {
		log.Errorf("failed to marshal new gym: %s", err)
		http.Error(w, "error, failed to add new gym", http.StatusInternalServerError)
		return
	}

	log.Debugf("new gym added: %d [%s]", addedGym.ID, addedGym.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, gymJson, http.StatusCreated)
}

func (handler *GymHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.gym.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var gym Gym
	if err := json.NewDecoder(r.Body).Decode(&gym); err != nil {
		log.Errorf("update gym, unmarshal json params: %s", err)
		http.Error(w, "update gym failed", http.StatusBadRequest)
		return
	}
	gym.ID = id

	if gym.Name == "" {
		http.Error(w, "error, gym name empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &gym); err != nil {
		if errors.Is(err, ErrGymNotFound) {
			http.Error(w, "gym not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrGymAlreadyExists) {
			http.Error(w, "gym already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to update gym %d: %s", id, err)
		http.Error(w, "error, failed to update gym", http.StatusInternalServerError)
		return
	}

	gymJson, err := json.Marshal(gym)
	if err != nil {
		log.Errorf("failed to marshal updated gym: %s", err)
		http.Error(w, "failed to marshal updated gym", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, gymJson)
}

func (handler *GymHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.gym.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gym, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrGymNotFound) {
			http.Error(w, "gym not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get gym %d: %s", id, err)
		http.Error(w, "failed to get gym", http.StatusInternalServerError)
		return
	}

	gymJson, err := json.Marshal(gym)
	if err != nil {
		log.Errorf("failed to marshal gym: %s", err)
		http.Error(w, "failed to marshal gym", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, gymJson)
}

func (handler *GymHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.gym.list")
	defer span.End()

	listParams, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gyms, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list gyms error: %s", err)
		http.Error(w, "failed to get gyms", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListGymsResponse{
		Gyms:  gyms,
		Total: total,
	})
	if err != nil {
		log.Errorf("marshal gyms error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

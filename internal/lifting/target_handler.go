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

type targetsRepo interface {
	Add(ctx context.Context, target Target) (*Target, error)
	Update(ctx context.Context, target *Target) error
	Get(ctx context.Context, id int) (*Target, error)
	List(ctx context.Context, params ListParams) (_ []Target, total int, err error)
}

type ListTargetsResponse struct {
	Targets []Target `json:"targets"`
	Total   int      `json:"total"`
}

type TargetHandler struct {
	repo targetsRepo
}

func NewTargetHandler(repo targetsRepo) *TargetHandler {
	return &TargetHandler{
		repo: repo,
	}
}

func (handler *TargetHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.target.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var target Target
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		log.Tracef("new target, unmarshal json params: %s", err)
		http.Error(w, "add target failed", http.StatusBadRequest)
		return
	}

	if target.Name == "" {
		http.Error(w, "error, target name empty", http.StatusBadRequest)
		return
	}

	addedTarget, err := handler.repo.Add(ctx, target)
	if err != nil {
		log.Errorf("failed to add new target [%s]: %s", target.Name, err)
		http.Error(w, "error, failed to add new target", http.StatusInternalServerError)
		return
	}

	targetJson, err := json.Marshal(addedTarget)
	if err != nil {
		log.Errorf("failed to marshal new target: %s", err)
		http.Error(w, "error, failed to add new target", http.StatusInternalServerError)
		return
	}

	log.Debugf("new target added: %d [%s]", addedTarget.ID, addedTarget.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, targetJson, http.StatusCreated)
}

func (handler *TargetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.target.update")
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

	var target Target
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		log.Errorf("update target, unmarshal json params: %s", err)
		http.Error(w, "update target failed", http.StatusBadRequest)
		return
	}
	target.ID = id

	if target.Name == "" {
		http.Error(w, "error, target name empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &target); err != nil {
		if errors.Is(err, ErrTargetNotFound) {
			http.Error(w, "target not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update target %d: %s", id, err)
		http.Error(w, "error, failed to update target", http.StatusInternalServerError)
		return
	}

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal updated target: %s", err)
		http.Error(w, "failed to marshal updated target", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, targetJson)
}

func (handler *TargetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.target.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTargetNotFound) {
			http.Error(w, "target not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get target %d: %s", id, err)
		http.Error(w, "failed to get target", http.StatusInternalServerError)
		return
	}

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal target: %s", err)
		http.Error(w, "failed to marshal target", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, targetJson)
}

func (handler *TargetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.target.list")
	defer span.End()

	listParams, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	targets, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list targets error: %s", err)
		http.Error(w, "failed to get targets", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListTargetsResponse{
		Targets: targets,
		Total:   total,
	})
	if err != nil {
		log.Errorf("marshal targets error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

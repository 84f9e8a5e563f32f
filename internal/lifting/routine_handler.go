package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/gr72s/self/internal/telemetry/metrics"
	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"
)

type routinesRepo interface {
	Create(ctx context.Context, params CreateRoutineParams) (*Routine, error)
	CreateTemplate(ctx context.Context, params CreateRoutineParams) (*Routine, error)
	Update(ctx context.Context, id int, params UpdateRoutineParams) (*Routine, error)
	Get(ctx context.Context, id int) (*Routine, error)
	List(ctx context.Context, params ListParams) (_ []Routine, total int, err error)
	Delete(ctx context.Context, id int) error
}

type ListRoutinesResponse struct {
	Routines []Routine `json:"routines"`
	Total    int       `json:"total"`
}

type RoutineHandler struct {
	repo    routinesRepo
	metrics *metrics.Manager
}

func NewRoutineHandler(repo routinesRepo, metrics *metrics.Manager) *RoutineHandler {
	return &RoutineHandler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *RoutineHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	handler.create(w, r, false)
}

// HandleCreateTemplate creates a standalone routine, ignoring any workout id
// the client might have sent.
func (handler *RoutineHandler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	handler.create(w, r, true)
}

func (handler *RoutineHandler) create(w http.ResponseWriter, r *http.Request, template bool) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.routine.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params CreateRoutineParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new routine, unmarshal json params: %s", err)
		http.Error(w, "add routine failed", http.StatusBadRequest)
		return
	}

	if params.Name == "" {
		http.Error(w, "error, routine name empty", http.StatusBadRequest)
		return
	}

	var (
		routine *Routine
		err     error
	)
	if template {
		routine, err = handler.repo.CreateTemplate(ctx, params)
	} else {
		routine, err = handler.repo.Create(ctx, params)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrTargetNotFound):
			http.Error(w, "target not found", http.StatusNotFound)
		case errors.Is(err, ErrWorkoutNotFound):
			http.Error(w, "workout not found", http.StatusNotFound)
		case errors.Is(err, ErrRoutineAlreadyBound):
			http.Error(w, "workout already has a routine", http.StatusConflict)
		default:
			log.Errorf("failed to add new routine [%s]: %s", params.Name, err)
			http.Error(w, "error, failed to add new routine", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterRoutinesCreated.Inc()

	routineJson, err := json.Marshal(routine)
	if err != nil {
		log.Errorf("failed to marshal new routine: %s", err)
		http.Error(w, "error, failed to add new routine", http.StatusInternalServerError)
		return
	}

	log.Debugf("new routine added: %d [%s], template: %t", routine.ID, routine.Name, routine.Template)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, routineJson, http.StatusCreated)
}

func (handler *RoutineHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.routine.update")
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

	var params UpdateRoutineParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("update routine, unmarshal json params: %s", err)
		http.Error(w, "update routine failed", http.StatusBadRequest)
		return
	}

	if params.Name == "" {
		http.Error(w, "error, routine name empty", http.StatusBadRequest)
		return
	}

	routine, err := handler.repo.Update(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoutineNotFound):
			http.Error(w, "routine not found", http.StatusNotFound)
		case errors.Is(err, ErrTargetNotFound):
			http.Error(w, "target not found", http.StatusNotFound)
		default:
			log.Errorf("failed to update routine %d: %s", id, err)
			http.Error(w, "error, failed to update routine", http.StatusInternalServerError)
		}
		return
	}

	routineJson, err := json.Marshal(routine)
	if err != nil {
		log.Errorf("failed to marshal updated routine: %s", err)
		http.Error(w, "failed to marshal updated routine", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, routineJson)
}

func (handler *RoutineHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.routine.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	routine, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get routine %d: %s", id, err)
		http.Error(w, "failed to get routine", http.StatusInternalServerError)
		return
	}

	routineJson, err := json.Marshal(routine)
	if err != nil {
		log.Errorf("failed to marshal routine: %s", err)
		http.Error(w, "failed to marshal routine", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, routineJson)
}

func (handler *RoutineHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.routine.delete")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete routine %d: %s", id, err)
		http.Error(w, "failed to delete routine", http.StatusInternalServerError)
		return
	}

	log.Debugf("routine %d deleted", id)
	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *RoutineHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.routine.list")
	defer span.End()

	listParams, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	routines, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list routines error: %s", err)
		http.Error(w, "failed to get routines", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListRoutinesResponse{
		Routines: routines,
		Total:    total,
	})
	if err != nil {
		log.Errorf("marshal routines error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

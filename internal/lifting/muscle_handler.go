package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"
)

type musclesRepo interface {
	Add(ctx context.Context, muscle Muscle) (*Muscle, error)
	Update(ctx context.Context, muscle *Muscle) error
	Get(ctx context.Context, id int) (*Muscle, error)
	List(ctx context.Context, params ListParams) (_ []Muscle, total int, err error)
}

type ListMusclesResponse struct {
	Muscles []Muscle `json:"muscles"`
	Total   int      `json:"total"`
}

type MuscleHandler struct {
	repo musclesRepo
}

func NewMuscleHandler(repo musclesRepo) *MuscleHandler {
	return &MuscleHandler{
		repo: repo,
	}
}

func (handler *MuscleHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.muscle.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var muscle Muscle
	if err := json.NewDecoder(r.Body).Decode(&muscle); err != nil {
		log.Tracef("new muscle, unmarshal json params: %s", err)
		http.Error(w, "add muscle failed", http.StatusBadRequest)
		return
	}

	if muscle.Name == "" {
		http.Error(w, "error, muscle name empty", http.StatusBadRequest)
		return
	}

	addedMuscle, err := handler.repo.Add(ctx, muscle)
	if err != nil {
		log.Errorf("failed to add new muscle [%s]: %s", muscle.Name, err)
		http.Error(w, "error, failed to add new muscle", http.StatusInternalServerError)
		return
	}

	muscleJson, err := json.Marshal(addedMuscle)
	if err != nil {
		log.Errorf("failed to marshal new muscle: %s", err)
		http.Error(w, "error, failed to add new muscle", http.StatusInternalServerError)
		return
	}

	log.Debugf("new muscle added: %d [%s]", addedMuscle.ID, addedMuscle.Name)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, muscleJson, http.StatusCreated)
}

func (handler *MuscleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.muscle.update")
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

	var muscle Muscle
	if err := json.NewDecoder(r.Body).Decode(&muscle); err != nil {
		log.Errorf("update muscle, unmarshal json params: %s", err)
		http.Error(w, "update muscle failed", http.StatusBadRequest)
		return
	}
	muscle.ID = id

	if muscle.Name == "" {
		http.Error(w, "error, muscle name empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &muscle); err != nil {
		if errors.Is(err, ErrMuscleNotFound) {
			http.Error(w, "muscle not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update muscle %d: %s", id, err)
		http.Error(w, "error, failed to update muscle", http.StatusInternalServerError)
		return
	}

	muscleJson, err := json.Marshal(muscle)
	if err != nil {
		log.Errorf("failed to marshal updated muscle: %s", err)
		http.Error(w, "failed to marshal updated muscle", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, muscleJson)
}

func (handler *MuscleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.muscle.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	muscle, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMuscleNotFound) {
			http.Error(w, "muscle not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get muscle %d: %s", id, err)
		http.Error(w, "failed to get muscle", http.StatusInternalServerError)
		return
	}

	muscleJson, err := json.Marshal(muscle)
	if err != nil {
		log.Errorf("failed to marshal muscle: %s", err)
		http.Error(w, "failed to marshal muscle", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, muscleJson)
}

func (handler *MuscleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.muscle.list")
	defer span.End()

	listParams, err := listParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	muscles, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list muscles error: %s", err)
		http.Error(w, "failed to get muscles", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListMusclesResponse{
		Muscles: muscles,
		Total:   total,
	})
	if err != nil {
		log.Errorf("marshal muscles error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// muxVarID reads a numeric path variable.
func muxVarID(r *http.Request, name string) (int, error) {
	vars := mux.Vars(r)
	idStr := vars[name]
	if idStr == "" {
		return 0, errors.New("error, " + name + " empty")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.New("error, " + name + " NaN")
	}
	return id, nil
}

// listParamsFromRequest translates the page/size path vars into the skip/limit
// window used by the repos, and picks up the optional name filter.
func listParamsFromRequest(r *http.Request) (ListParams, error) {
	vars := mux.Vars(r)

	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		return ListParams{}, errors.New("parse form error, parameter <page>")
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		return ListParams{}, errors.New("parse form error, parameter <size>")
	}

	if page < 0 {
		return ListParams{}, errors.New("invalid page (has to be a non-negative value)")
	}
	if size < 1 {
		return ListParams{}, errors.New("invalid size (has to be a non-zero value)")
	}

	return ListParams{
		Name:  r.URL.Query().Get("name"),
		Skip:  page * size,
		Limit: size,
	}, nil
}

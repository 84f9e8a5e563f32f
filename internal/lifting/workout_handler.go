package lifting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gr72s/self/internal/telemetry/metrics"
	"github.com/gr72s/self/internal/telemetry/tracing"
	"github.com/gr72s/self/pkg"
)

type workoutsRepo interface {
	Create(ctx context.Context, params CreateWorkoutParams) (*Workout, error)
	Update(ctx context.Context, id int, params UpdateWorkoutParams) (*Workout, error)
	Get(ctx context.Context, id int) (*Workout, error)
	FindInProcess(ctx context.Context, dayStart time.Time) (*Workout, error)
	List(ctx context.Context, params WorkoutListParams) (_ []Workout, total int, err error)
}

type ListWorkoutsResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

type StopWorkoutRequest struct {
	ID      int        `json:"id"`
	EndTime *time.Time `json:"endTime"`
}

type WorkoutHandler struct {
	repo    workoutsRepo
	metrics *metrics.Manager
}

func NewWorkoutHandler(repo workoutsRepo, metrics *metrics.Manager) *WorkoutHandler {
	return &WorkoutHandler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *WorkoutHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params CreateWorkoutParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Create(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymNotFound):
			http.Error(w, "gym not found", http.StatusNotFound)
		case errors.Is(err, ErrTargetNotFound):
			http.Error(w, "target not found", http.StatusNotFound)
		case errors.Is(err, ErrRoutineNotFound):
			http.Error(w, "routine not found", http.StatusNotFound)
		case errors.Is(err, ErrRoutineAlreadyBound):
			http.Error(w, "routine already bound to a workout", http.StatusConflict)
		default:
			log.Errorf("failed to add new workout: %s", err)
			http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		}
		return
	}

	handler.metrics.CounterWorkoutsStarted.Inc()

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		http.Error(w, "error, failed to add new workout", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout started: %d [gym %d]", workout.ID, workout.Gym.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

func (handler *WorkoutHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.update")
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

	var params UpdateWorkoutParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	handler.update(ctx, w, id, params)
}

// HandleStop marks a session complete. It is plain update sugar: an absent
// end time means "stop now".
func (handler *WorkoutHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.stop")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req StopWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("stop workout, unmarshal json params: %s", err)
		http.Error(w, "stop workout failed", http.StatusBadRequest)
		return
	}

	endTime := time.Now()
	if req.EndTime != nil {
		endTime = *req.EndTime
	}

	handler.update(ctx, w, req.ID, UpdateWorkoutParams{EndTime: &endTime})
}

func (handler *WorkoutHandler) update(ctx context.Context, w http.ResponseWriter, id int, params UpdateWorkoutParams) {
	workout, err := handler.repo.Update(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkoutNotFound):
			http.Error(w, "workout not found", http.StatusNotFound)
		case errors.Is(err, ErrGymNotFound):
			http.Error(w, "gym not found", http.StatusNotFound)
		case errors.Is(err, ErrTargetNotFound):
			http.Error(w, "target not found", http.StatusNotFound)
		case errors.Is(err, ErrRoutineNotFound):
			http.Error(w, "routine not found", http.StatusNotFound)
		case errors.Is(err, ErrRoutineAlreadyBound):
			http.Error(w, "routine already bound to a workout", http.StatusConflict)
		default:
			log.Errorf("failed to update workout %d: %s", id, err)
			http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		}
		return
	}

	if params.EndTime != nil {
		handler.metrics.CounterWorkoutsFinished.Inc()
		log.Debugf("workout %d finished", id)
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal updated workout: %s", err)
		http.Error(w, "failed to marshal updated workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *WorkoutHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get workout %d: %s", id, err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "failed to marshal workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

// HandleFindInProcess answers "what is currently in progress": the freshest
// workout started today that has not been stopped. 404 when idle.
func (handler *WorkoutHandler) HandleFindInProcess(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.findinprocess")
	defer span.End()

	workout, err := handler.repo.FindInProcess(ctx, StartOfDay(time.Now()))
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "no workout in process", http.StatusNotFound)
			return
		}
		log.Errorf("failed to find in-process workout: %s", err)
		http.Error(w, "failed to find in-process workout", http.StatusInternalServerError)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout: %s", err)
		http.Error(w, "failed to marshal workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *WorkoutHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.workout.list")
	defer span.End()

	listParams, err := workoutListParamsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workouts, total, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListWorkoutsResponse{
		Workouts: workouts,
		Total:    total,
	})
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// workoutListParamsFromRequest reads the page/size window plus the optional
// from/to date filter (YYYY-MM-DD, both ends inclusive, applied to start
// time).
func workoutListParamsFromRequest(r *http.Request) (WorkoutListParams, error) {
	listParams, err := listParamsFromRequest(r)
	if err != nil {
		return WorkoutListParams{}, err
	}

	params := WorkoutListParams{
		Skip:  listParams.Skip,
		Limit: listParams.Limit,
	}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.ParseInLocation(time.DateOnly, fromStr, time.Local)
		if err != nil {
			return WorkoutListParams{}, errors.New("parse form error, parameter <from>")
		}
		params.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.ParseInLocation(time.DateOnly, toStr, time.Local)
		if err != nil {
			return WorkoutListParams{}, errors.New("parse form error, parameter <to>")
		}
		// the whole "to" day counts
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		params.To = &to
	}

	return params, nil
}

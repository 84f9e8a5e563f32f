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

type slotsRepo interface {
	Create(ctx context.Context, params CreateSlotParams) (*Slot, error)
	Get(ctx context.Context, id int) (*Slot, error)
	GetByRoutine(ctx context.Context, routineID int) ([]Slot, error)
}

type RoutineSlotsResponse struct {
	Slots []Slot `json:"slots"`
	Total int    `json:"total"`
}

type SlotHandler struct {
	repo slotsRepo
}

func NewSlotHandler(repo slotsRepo) *SlotHandler {
	return &SlotHandler{
		repo: repo,
	}
}

func (handler *SlotHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.slot.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params CreateSlotParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new slot, unmarshal json params: %s", err)
		http.Error(w, "add slot failed", http.StatusBadRequest)
		return
	}

	slot, err := handler.repo.Create(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCategory):
			http.Error(w, "invalid slot category", http.StatusBadRequest)
		case errors.Is(err, ErrRoutineNotFound):
			http.Error(w, "routine not found", http.StatusNotFound)
		case errors.Is(err, ErrExerciseNotFound):
			http.Error(w, "exercise not found", http.StatusNotFound)
		default:
			log.Errorf("failed to add new slot to routine %d: %s", params.RoutineID, err)
			http.Error(w, "error, failed to add new slot", http.StatusInternalServerError)
		}
		return
	}

	slotJson, err := json.Marshal(slot)
	if err != nil {
		log.Errorf("failed to marshal new slot: %s", err)
		http.Error(w, "error, failed to add new slot", http.StatusInternalServerError)
		return
	}

	log.Debugf("new slot added: %d [routine %d, seq %d]", slot.ID, slot.RoutineID, slot.Sequence)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, slotJson, http.StatusCreated)
}

func (handler *SlotHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.slot.get")
	defer span.End()

	id, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slot, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			http.Error(w, "slot not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get slot %d: %s", id, err)
		http.Error(w, "failed to get slot", http.StatusInternalServerError)
		return
	}

	slotJson, err := json.Marshal(slot)
	if err != nil {
		log.Errorf("failed to marshal slot: %s", err)
		http.Error(w, "failed to marshal slot", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, slotJson)
}

func (handler *SlotHandler) HandleGetByRoutine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.lifting.slot.getbyroutine")
	defer span.End()

	routineID, err := muxVarID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slots, err := handler.repo.GetByRoutine(ctx, routineID)
	if err != nil {
		if errors.Is(err, ErrRoutineNotFound) {
			http.Error(w, "routine not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get slots of routine %d: %s", routineID, err)
		http.Error(w, "failed to get routine slots", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(RoutineSlotsResponse{
		Slots: slots,
		Total: len(slots),
	})
	if err != nil {
		log.Errorf("marshal routine slots error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

package lifting

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	_ musclesRepo   = (*muscleRepoMock)(nil)
	_ gymsRepo      = (*gymRepoMock)(nil)
	_ targetsRepo   = (*targetRepoMock)(nil)
	_ exercisesRepo = (*exerciseRepoMock)(nil)
	_ routinesRepo  = (*routineRepoMock)(nil)
	_ slotsRepo     = (*slotRepoMock)(nil)
	_ workoutsRepo  = (*workoutRepoMock)(nil)
)

type muscleRepoMock struct {
	Muscles map[int]*Muscle
	nextID  int
	mutex   sync.Mutex
}

func newMuscleRepoMock() *muscleRepoMock {
	return &muscleRepoMock{
		Muscles: make(map[int]*Muscle),
		nextID:  1,
	}
}

func (r *muscleRepoMock) Add(_ context.Context, muscle Muscle) (*Muscle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	muscle.ID = r.nextID
	r.nextID++
	r.Muscles[muscle.ID] = &muscle
	return &muscle, nil
}

func (r *muscleRepoMock) Update(_ context.Context, muscle *Muscle) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Muscles[muscle.ID]; !ok {
		return ErrMuscleNotFound
	}
	r.Muscles[muscle.ID] = muscle
	return nil
}

func (r *muscleRepoMock) Get(_ context.Context, id int) (*Muscle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	muscle, ok := r.Muscles[id]
	if !ok {
		return nil, ErrMuscleNotFound
	}
	return muscle, nil
}

func (r *muscleRepoMock) List(_ context.Context, params ListParams) ([]Muscle, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Muscle, 0, len(r.Muscles))
	for _, m := range r.Muscles {
		if params.Name != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(params.Name)) {
			continue
		}
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if params.Skip >= len(all) {
		return []Muscle{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

type gymRepoMock struct {
	Gyms   map[int]*Gym
	nextID int
	mutex  sync.Mutex
}

func newGymRepoMock() *gymRepoMock {
	return &gymRepoMock{
		Gyms:   make(map[int]*Gym),
		nextID: 1,
	}
}

func (r *gymRepoMock) Add(_ context.Context, gym Gym) (*Gym, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, g := range r.Gyms {
		if g.Name == gym.Name {
			return nil, ErrGymAlreadyExists
		}
	}
	gym.ID = r.nextID
	r.nextID++
	r.Gyms[gym.ID] = &gym
	return &gym, nil
}

func (r *gymRepoMock) Update(_ context.Context, gym *Gym) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Gyms[gym.ID]; !ok {
		return ErrGymNotFound
	}
	for id, g := range r.Gyms {
		if id != gym.ID && g.Name == gym.Name {
			return ErrGymAlreadyExists
		}
	}
	r.Gyms[gym.ID] = gym
	return nil
}

func (r *gymRepoMock) Get(_ context.Context, id int) (*Gym, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	gym, ok := r.Gyms[id]
	if !ok {
		return nil, ErrGymNotFound
	}
	return gym, nil
}

func (r *gymRepoMock) List(_ context.Context, params ListParams) ([]Gym, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Gym, 0, len(r.Gyms))
	for _, g := range r.Gyms {
		if params.Name != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(params.Name)) {
			continue
		}
		all = append(all, *g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if params.Skip >= len(all) {
		return []Gym{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

type targetRepoMock struct {
	Targets map[int]*Target
	nextID  int
	mutex   sync.Mutex
}

func newTargetRepoMock() *targetRepoMock {
	return &targetRepoMock{
		Targets: make(map[int]*Target),
		nextID:  1,
	}
}

func (r *targetRepoMock) Add(_ context.Context, target Target) (*Target, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	target.ID = r.nextID
	r.nextID++
	r.Targets[target.ID] = &target
	return &target, nil
}

func (r *targetRepoMock) Update(_ context.Context, target *Target) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Targets[target.ID]; !ok {
		return ErrTargetNotFound
	}
	r.Targets[target.ID] = target
	return nil
}

func (r *targetRepoMock) Get(_ context.Context, id int) (*Target, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	target, ok := r.Targets[id]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return target, nil
}

func (r *targetRepoMock) List(_ context.Context, params ListParams) ([]Target, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Target, 0, len(r.Targets))
	for _, t := range r.Targets {
		if params.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(params.Name)) {
			continue
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if params.Skip >= len(all) {
		return []Target{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

type exerciseRepoMock struct {
	Exercises map[int]*Exercise
	muscles   *muscleRepoMock
	nextID    int
	mutex     sync.Mutex
}

func newExerciseRepoMock(muscles *muscleRepoMock) *exerciseRepoMock {
	return &exerciseRepoMock{
		Exercises: make(map[int]*Exercise),
		muscles:   muscles,
		nextID:    1,
	}
}

func (r *exerciseRepoMock) resolveMuscles(ctx context.Context, ids []int) ([]Muscle, error) {
	muscles := make([]Muscle, 0, len(ids))
	for _, id := range ids {
		m, err := r.muscles.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		muscles = append(muscles, *m)
	}
	return muscles, nil
}

func (r *exerciseRepoMock) Add(ctx context.Context, params ExerciseParams) (*Exercise, error) {
	main, err := r.resolveMuscles(ctx, params.MainMuscleIDs)
	if err != nil {
		return nil, err
	}
	support, err := r.resolveMuscles(ctx, params.SupportMuscleIDs)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	cues := params.Cues
	if cues == nil {
		cues = []string{}
	}
	exercise := &Exercise{
		ID:             r.nextID,
		Name:           params.Name,
		Description:    params.Description,
		Cues:           cues,
		MainMuscles:    main,
		SupportMuscles: support,
	}
	r.nextID++
	r.Exercises[exercise.ID] = exercise
	return exercise, nil
}

func (r *exerciseRepoMock) Update(ctx context.Context, id int, params ExerciseParams) (*Exercise, error) {
	main, err := r.resolveMuscles(ctx, params.MainMuscleIDs)
	if err != nil {
		return nil, err
	}
	support, err := r.resolveMuscles(ctx, params.SupportMuscleIDs)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Exercises[id]; !ok {
		return nil, ErrExerciseNotFound
	}

	cues := params.Cues
	if cues == nil {
		cues = []string{}
	}
	exercise := &Exercise{
		ID:             id,
		Name:           params.Name,
		Description:    params.Description,
		Cues:           cues,
		MainMuscles:    main,
		SupportMuscles: support,
	}
	r.Exercises[id] = exercise
	return exercise, nil
}

func (r *exerciseRepoMock) Get(_ context.Context, id int) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	exercise, ok := r.Exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

func (r *exerciseRepoMock) List(_ context.Context, params ListParams) ([]Exercise, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Exercise, 0, len(r.Exercises))
	for _, e := range r.Exercises {
		if params.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(params.Name)) {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if params.Skip >= len(all) {
		return []Exercise{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

type routineRepoMock struct {
	Routines map[int]*Routine
	targets  *targetRepoMock
	workouts *workoutRepoMock
	nextID   int
	mutex    sync.Mutex
}

func newRoutineRepoMock(targets *targetRepoMock, workouts *workoutRepoMock) *routineRepoMock {
	return &routineRepoMock{
		Routines: make(map[int]*Routine),
		targets:  targets,
		workouts: workouts,
		nextID:   1,
	}
}

func (r *routineRepoMock) resolveTargets(ctx context.Context, ids []int) ([]Target, error) {
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		t, err := r.targets.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, nil
}

func (r *routineRepoMock) Create(ctx context.Context, params CreateRoutineParams) (*Routine, error) {
	targets, err := r.resolveTargets(ctx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	var workout *RoutineWorkout
	if params.WorkoutID != nil {
		if r.workouts == nil {
			return nil, ErrWorkoutNotFound
		}
		w, err := r.workouts.Get(ctx, *params.WorkoutID)
		if err != nil {
			return nil, err
		}
		workout = &RoutineWorkout{
			ID:        w.ID,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
			GymID:     w.Gym.ID,
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	checklist := params.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	routine := &Routine{
		ID:          r.nextID,
		Name:        params.Name,
		Description: params.Description,
		Template:    params.WorkoutID == nil,
		Note:        params.Note,
		Checklist:   checklist,
		Targets:     targets,
		Slots:       []Slot{},
		Workout:     workout,
	}
	r.nextID++
	r.Routines[routine.ID] = routine
	return routine, nil
}

func (r *routineRepoMock) CreateTemplate(ctx context.Context, params CreateRoutineParams) (*Routine, error) {
	params.WorkoutID = nil
	return r.Create(ctx, params)
}

func (r *routineRepoMock) Update(ctx context.Context, id int, params UpdateRoutineParams) (*Routine, error) {
	targets, err := r.resolveTargets(ctx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	routine, ok := r.Routines[id]
	if !ok {
		return nil, ErrRoutineNotFound
	}

	checklist := params.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	routine.Name = params.Name
	routine.Description = params.Description
	routine.Note = params.Note
	routine.Checklist = checklist
	routine.Targets = targets
	return routine, nil
}

func (r *routineRepoMock) Get(_ context.Context, id int) (*Routine, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	routine, ok := r.Routines[id]
	if !ok {
		return nil, ErrRoutineNotFound
	}
	return routine, nil
}

func (r *routineRepoMock) List(_ context.Context, params ListParams) ([]Routine, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Routine, 0, len(r.Routines))
	for _, routine := range r.Routines {
		if params.Name != "" && !strings.Contains(strings.ToLower(routine.Name), strings.ToLower(params.Name)) {
			continue
		}
		all = append(all, *routine)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if params.Skip >= len(all) {
		return []Routine{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

func (r *routineRepoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Routines[id]; !ok {
		return ErrRoutineNotFound
	}
	delete(r.Routines, id)
	return nil
}

type slotRepoMock struct {
	Slots     map[int]*Slot
	routines  *routineRepoMock
	exercises *exerciseRepoMock
	nextID    int
	mutex     sync.Mutex
}

func newSlotRepoMock(routines *routineRepoMock, exercises *exerciseRepoMock) *slotRepoMock {
	return &slotRepoMock{
		Slots:     make(map[int]*Slot),
		routines:  routines,
		exercises: exercises,
		nextID:    1,
	}
}

func (r *slotRepoMock) Create(ctx context.Context, params CreateSlotParams) (*Slot, error) {
	if params.Category == "" {
		params.Category = CategoryWorkingSets
	}
	if !params.Category.IsValid() {
		return nil, ErrInvalidCategory
	}

	if _, err := r.routines.Get(ctx, params.RoutineID); err != nil {
		return nil, err
	}
	exercise, err := r.exercises.Get(ctx, params.ExerciseID)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	slot := &Slot{
		ID:        r.nextID,
		RoutineID: params.RoutineID,
		Exercise:  *exercise,
		Stars:     params.Stars,
		Category:  params.Category,
		SetNumber: params.SetNumber,
		Weight:    params.Weight,
		Reps:      params.Reps,
		Duration:  params.Duration,
		Sequence:  params.Sequence,
	}
	r.nextID++
	r.Slots[slot.ID] = slot
	return slot, nil
}

func (r *slotRepoMock) Get(_ context.Context, id int) (*Slot, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	slot, ok := r.Slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (r *slotRepoMock) GetByRoutine(ctx context.Context, routineID int) ([]Slot, error) {
	if _, err := r.routines.Get(ctx, routineID); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	slots := make([]Slot, 0)
	for _, s := range r.Slots {
		if s.RoutineID == routineID {
			slots = append(slots, *s)
		}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Sequence != slots[j].Sequence {
			return slots[i].Sequence < slots[j].Sequence
		}
		return slots[i].ID < slots[j].ID
	})
	return slots, nil
}

type workoutRepoMock struct {
	Workouts      map[int]*Workout
	gyms          *gymRepoMock
	targets       *targetRepoMock
	boundRoutines map[int]int // routine id -> workout id
	nextID        int
	mutex         sync.Mutex
}

func newWorkoutRepoMock(gyms *gymRepoMock, targets *targetRepoMock) *workoutRepoMock {
	return &workoutRepoMock{
		Workouts:      make(map[int]*Workout),
		gyms:          gyms,
		targets:       targets,
		boundRoutines: make(map[int]int),
		nextID:        1,
	}
}

func (r *workoutRepoMock) resolveTargets(ctx context.Context, ids []int) ([]Target, error) {
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		t, err := r.targets.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	return targets, nil
}

func (r *workoutRepoMock) Create(ctx context.Context, params CreateWorkoutParams) (*Workout, error) {
	gym, err := r.gyms.Get(ctx, params.GymID)
	if err != nil {
		return nil, err
	}
	targets, err := r.resolveTargets(ctx, params.TargetIDs)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if params.RoutineID != nil {
		if _, bound := r.boundRoutines[*params.RoutineID]; bound {
			return nil, ErrRoutineAlreadyBound
		}
	}

	startTime := time.Now()
	if params.StartTime != nil {
		startTime = *params.StartTime
	}
	workout := &Workout{
		ID:        r.nextID,
		StartTime: &startTime,
		Note:      params.Note,
		Gym:       *gym,
		Targets:   targets,
		RoutineID: params.RoutineID,
	}
	r.nextID++
	r.Workouts[workout.ID] = workout
	if params.RoutineID != nil {
		r.boundRoutines[*params.RoutineID] = workout.ID
	}
	return workout, nil
}

func (r *workoutRepoMock) Update(ctx context.Context, id int, params UpdateWorkoutParams) (*Workout, error) {
	var (
		gym     *Gym
		targets []Target
		err     error
	)
	if params.GymID != nil {
		gym, err = r.gyms.Get(ctx, *params.GymID)
		if err != nil {
			return nil, err
		}
	}
	if params.TargetIDs != nil {
		targets, err = r.resolveTargets(ctx, *params.TargetIDs)
		if err != nil {
			return nil, err
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}

	if params.StartTime != nil {
		workout.StartTime = params.StartTime
	}
	if params.EndTime != nil {
		workout.EndTime = params.EndTime
	}
	if gym != nil {
		workout.Gym = *gym
	}
	if params.Note != nil {
		workout.Note = *params.Note
	}
	if params.TargetIDs != nil {
		workout.Targets = targets
	}
	if params.RoutineID != nil {
		if ownerID, bound := r.boundRoutines[*params.RoutineID]; bound && ownerID != id {
			return nil, ErrRoutineAlreadyBound
		}
		if workout.RoutineID != nil {
			delete(r.boundRoutines, *workout.RoutineID)
		}
		workout.RoutineID = params.RoutineID
		r.boundRoutines[*params.RoutineID] = id
	}

	return workout, nil
}

func (r *workoutRepoMock) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	workout, ok := r.Workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

func (r *workoutRepoMock) FindInProcess(_ context.Context, dayStart time.Time) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var found *Workout
	for _, w := range r.Workouts {
		if w.StartTime == nil || w.StartTime.Before(dayStart) || w.EndTime != nil {
			continue
		}
		if found == nil || w.StartTime.After(*found.StartTime) {
			found = w
		}
	}
	if found == nil {
		return nil, ErrWorkoutNotFound
	}
	return found, nil
}

func (r *workoutRepoMock) List(_ context.Context, params WorkoutListParams) ([]Workout, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	all := make([]Workout, 0, len(r.Workouts))
	for _, w := range r.Workouts {
		if params.From != nil && (w.StartTime == nil || w.StartTime.Before(*params.From)) {
			continue
		}
		if params.To != nil && (w.StartTime == nil || w.StartTime.After(*params.To)) {
			continue
		}
		all = append(all, *w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(*all[j].StartTime) })

	total := len(all)
	if params.Skip >= len(all) {
		return []Workout{}, total, nil
	}
	all = all[params.Skip:]
	if params.Limit < len(all) {
		all = all[:params.Limit]
	}
	return all, total, nil
}

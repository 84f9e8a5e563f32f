package lifting

// Category tags a slot with the role its exercise plays within a routine.
// The set is closed; values are used verbatim on the wire and in storage.
type Category string

const (
	CategoryMobility    Category = "Mobility" // self-myofascial release, foam rolling
	CategoryWarmUp      Category = "WarmUp"
	CategoryActivation  Category = "Activation"
	CategoryWorkingSets Category = "WorkingSets"
	CategoryCorrective  Category = "Corrective"
	CategoryAerobic     Category = "Aerobic"
	CategoryCoolDown    Category = "CoolDown"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMobility,
		CategoryWarmUp,
		CategoryActivation,
		CategoryWorkingSets,
		CategoryCorrective,
		CategoryAerobic,
		CategoryCoolDown:
		return true
	default:
		return false
	}
}

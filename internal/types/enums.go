package types

// BudStatus is the lifecycle state of a bud.
//
// Lifecycle: seed → dormant → budding → bloomed, with mulch reachable from
// any non-terminal state. Transitions among the non-terminal states are
// free except that a seed cannot bloom directly; it must be clarified
// (dormant) or started (budding) first.
type BudStatus string

// Bud status constants
const (
	StatusSeed    BudStatus = "seed"    // raw capture, unprocessed
	StatusDormant BudStatus = "dormant" // clarified, ready to work on
	StatusBudding BudStatus = "budding" // actively being worked on
	StatusBloomed BudStatus = "bloomed" // completed
	StatusMulch   BudStatus = "mulch"   // dropped; feeds future growth
)

// IsValid checks if the status value is valid.
func (s BudStatus) IsValid() bool {
	switch s {
	case StatusSeed, StatusDormant, StatusBudding, StatusBloomed, StatusMulch:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the bud's lifecycle.
func (s BudStatus) IsTerminal() bool {
	return s == StatusBloomed || s == StatusMulch
}

// ContainerStatus is the lifecycle state of a trunk or branch. Containers
// represent ongoing efforts, so any state is reachable from any other.
type ContainerStatus string

// Container status constants
const (
	ContainerActive    ContainerStatus = "active"
	ContainerPaused    ContainerStatus = "paused"
	ContainerCompleted ContainerStatus = "completed"
	ContainerArchived  ContainerStatus = "archived"
)

// IsValid checks if the status value is valid.
func (s ContainerStatus) IsValid() bool {
	switch s {
	case ContainerActive, ContainerPaused, ContainerCompleted, ContainerArchived:
		return true
	}
	return false
}

// FruitStatus is the lifecycle state of a fruit (key result).
type FruitStatus string

// Fruit status constants
const (
	FruitActive    FruitStatus = "active"
	FruitCompleted FruitStatus = "completed"
	FruitMissed    FruitStatus = "missed"
	FruitAbandoned FruitStatus = "abandoned"
)

// IsValid checks if the status value is valid.
func (s FruitStatus) IsValid() bool {
	switch s {
	case FruitActive, FruitCompleted, FruitMissed, FruitAbandoned:
		return true
	}
	return false
}

// Priority orders work within a container.
type Priority string

// Priority constants
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid checks if the priority value is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// EnergyLevel is the energy a bud demands of its assignee.
type EnergyLevel string

// Energy level constants
const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// IsValid checks if the energy level value is valid.
func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyHigh, EnergyMedium, EnergyLow:
		return true
	}
	return false
}

// DependencyType categorizes an edge between buds.
type DependencyType string

// Dependency type constants
const (
	DepBlocks  DependencyType = "blocks"  // gate: depends_on must finish first
	DepRelated DependencyType = "related" // association only
	DepSubtask DependencyType = "subtask" // decomposition, does not gate
)

// IsValid checks if the dependency type value is valid.
func (d DependencyType) IsValid() bool {
	switch d {
	case DepBlocks, DepRelated, DepSubtask:
		return true
	}
	return false
}

// GatesActionability returns true if this edge type blocks work. Only
// blocks edges participate in the actionable-set computation.
func (d DependencyType) GatesActionability() bool {
	return d == DepBlocks
}

// HabitFrequency is how often a habit recurs.
type HabitFrequency string

// Habit frequency constants
const (
	FreqDaily       HabitFrequency = "daily"
	FreqWeekly      HabitFrequency = "weekly"
	FreqThriceAWeek HabitFrequency = "3x_week"
)

// IsValid checks if the frequency value is valid.
func (f HabitFrequency) IsValid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqThriceAWeek:
		return true
	}
	return false
}

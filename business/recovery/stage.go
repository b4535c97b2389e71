package recovery

// ReminderStage identifies one of the three escalation checkpoints.
type ReminderStage int

const (
	StageFirst ReminderStage = iota + 1
	StageSecond
	StageFinal
)

// MaxReminders caps the total reminders per cart across all checkpoints.
// The snapshot store guards its reminder updates with the same constant.
const MaxReminders = 3

func (s ReminderStage) String() string {
	switch s {
	case StageFirst:
		return "first"
	case StageSecond:
		return "second"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

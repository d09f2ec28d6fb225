package scoring

import "fmt"

// LevelError reports the skill carrying an unrecognized proficiency level.
type LevelError struct {
	Skill string
	Level string
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("skill %q has unknown level %q", e.Skill, e.Level)
}

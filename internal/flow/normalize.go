package flow

import "github.com/BTreeMap/Pathfinder/internal/models"

// Normalize attaches a display icon to every phase by position, cycling through
// models.PhaseIcons. Phase order and all other fields are left untouched.
func Normalize(r *models.Roadmap) *models.Roadmap {
	if r == nil {
		return nil
	}
	for i := range r.Phases {
		r.Phases[i].Icon = models.PhaseIcons[i%len(models.PhaseIcons)]
	}
	return r
}

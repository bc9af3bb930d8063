package model

import "github.com/lorehub/reputation/internal/domain/criteria"

// Badge is configuration data describing an earnable achievement.
type Badge struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Icon        string            `json:"icon"`
	Description string            `json:"description"`
	Criteria    criteria.Criteria `json:"criteria"`
	Active      bool              `json:"active"`
}

package repository

import (
	"strings"

	"gorm.io/gorm"

	"assignmint.com/assignmint/internal/constants"
)

// TaskFilter holds equality/range predicates over the indexed task columns.
// Zero values mean "no constraint".
type TaskFilter struct {
	MatchingType     constants.MatchingType
	Statuses         []constants.TaskStatus
	IsActive         *bool
	Subject          string
	Urgency          constants.Urgency
	MaxBudget        *float64
	RequesterID      string
	AssignedExpertID string
	// Keywords match any whole word of the search_keywords column.
	Keywords []string
}

func (f TaskFilter) scope(db *gorm.DB) *gorm.DB {
	if f.MatchingType != "" {
		db = db.Where("matching_type = ?", f.MatchingType)
	}
	if len(f.Statuses) == 1 {
		db = db.Where("status = ?", f.Statuses[0])
	} else if len(f.Statuses) > 1 {
		db = db.Where("status IN ?", f.Statuses)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.Subject != "" {
		db = db.Where("subject = ?", f.Subject)
	}
	if f.Urgency != "" {
		db = db.Where("urgency = ?", f.Urgency)
	}
	if f.MaxBudget != nil {
		db = db.Where("budget <= ?", *f.MaxBudget)
	}
	if f.RequesterID != "" {
		db = db.Where("requester_id = ?", f.RequesterID)
	}
	if f.AssignedExpertID != "" {
		db = db.Where("assigned_expert_id = ?", f.AssignedExpertID)
	}
	if len(f.Keywords) > 0 {
		clauses := make([]string, len(f.Keywords))
		args := make([]interface{}, len(f.Keywords))
		for i, kw := range f.Keywords {
			clauses[i] = "search_keywords LIKE ?"
			args[i] = "% " + kw + " %"
		}
		db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return db
}

func orderScope(sort constants.SortKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch sort {
		case constants.SortPriceAsc:
			db = db.Order("budget asc")
		case constants.SortPriceDesc:
			db = db.Order("budget desc")
		case constants.SortDeadlineAsc:
			db = db.Order("deadline asc")
		default:
			db = db.Order("created_at desc")
		}
		return db.Order("id asc")
	}
}

package checklists

import "time"

const (
	AssignmentPending    = "pending"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
)

type Item struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

type Checklist struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Assignment struct {
	ID             string     `json:"id"`
	OrgID          string     `json:"organizationId"`
	ChecklistID    string     `json:"checklistId"`
	ProfileID      string     `json:"profileId"`
	LocationID     *string    `json:"locationId,omitempty"`
	DueDate        time.Time  `json:"dueDate"`
	Status         string     `json:"status"`
	CompletedItems []string   `json:"completedItems"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Progress reports done and total counts for an assignment against its
// checklist definition.
func Progress(checklist Checklist, assignment Assignment) (done, total int) {
	completed := make(map[string]bool, len(assignment.CompletedItems))
	for _, key := range assignment.CompletedItems {
		completed[key] = true
	}
	for _, item := range checklist.Items {
		if completed[item.Key] {
			done++
		}
	}
	return done, len(checklist.Items)
}

// MissingRequired lists required item keys not yet checked off.
func MissingRequired(checklist Checklist, assignment Assignment) []string {
	completed := make(map[string]bool, len(assignment.CompletedItems))
	for _, key := range assignment.CompletedItems {
		completed[key] = true
	}
	var missing []string
	for _, item := range checklist.Items {
		if item.Required && !completed[item.Key] {
			missing = append(missing, item.Key)
		}
	}
	return missing
}

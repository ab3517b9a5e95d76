package models

const (
	EventCardCreated        = "card_created"
	EventCardUpdated        = "card_updated"
	EventCardDeleted        = "card_deleted"
	EventCardPurged         = "card_purged"
	EventReactionAdded      = "reaction_added"
	EventReactionRemoved    = "reaction_removed"
	EventCommentCreated     = "comment_created"
	EventBoardUpdated       = "board_updated"
	EventSectionCreated     = "section_created"
	EventCourseModuleViewed = "course_module_viewed"
)

// Event is a record of something a user did on a board.
type Event struct {
	Name        string         `json:"eventname"`
	ObjectID    int64          `json:"objectid"`
	ContextID   int64          `json:"contextid"`
	UserID      int64          `json:"userid"`
	Other       map[string]any `json:"other,omitempty"`
	TimeCreated int64          `json:"timecreated"`
}

package models

import "time"

// PostView is a post composed with author, counts and the viewer's like flag.
type PostView struct {
	ID           uint          `json:"id"`
	UserID       uint          `json:"user_id"`
	Caption      string        `json:"caption"`
	Media        []PostMedia   `json:"media"`
	User         UserSummary   `json:"user"`
	LikeCount    int64         `json:"like_count"`
	CommentCount int64         `json:"comment_count"`
	Comments     []CommentView `json:"comments,omitempty"`
	HasLiked     bool          `json:"has_liked"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CommentView is a comment with its author summary.
type CommentView struct {
	Comment
	User UserSummary `json:"user"`
}

// LikeView is a like with the liker's summary.
type LikeView struct {
	Like
	User UserSummary `json:"user"`
}

// NotificationView is a notification with its sender summary.
type NotificationView struct {
	Notification
	Sender UserSummary `json:"sender"`
}

// ProgressUpdateView is a progress update with plan title and author.
type ProgressUpdateView struct {
	ProgressUpdate
	PlanTitle string      `json:"plan_title"`
	User      UserSummary `json:"user"`
}

// MediaResult is the per-file outcome of a lenient media batch.
type MediaResult struct {
	Index    int                  `json:"index"`
	Filename string               `json:"filename"`
	Stored   bool                 `json:"stored"`
	Error    string               `json:"error,omitempty"`
	Media    *ProgressUpdateMedia `json:"media,omitempty"`
}

// ProgressUpdateResult is the outcome of a create or update with its media results.
type ProgressUpdateResult struct {
	Update       *ProgressUpdateView `json:"update"`
	MediaResults []MediaResult       `json:"media_results"`
}

// Failed returns only the unsuccessful media results.
func (r *ProgressUpdateResult) Failed() []MediaResult {
	var out []MediaResult
	for _, m := range r.MediaResults {
		if !m.Stored {
			out = append(out, m)
		}
	}
	return out
}

// CreatorSummary names the author of a learning plan.
type CreatorSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LearningPlanView is a plan with enrollment aggregates for a viewer.
type LearningPlanView struct {
	LearningPlan
	EnrollmentCount int64          `json:"enrollment_count"`
	UserEnrolled    bool           `json:"user_enrolled"`
	CreatedByUser   CreatorSummary `json:"created_by_user"`
}

// EnrollmentView is an enrollment with the plan's headline fields.
type EnrollmentView struct {
	Enrollment
	PlanTitle       string `json:"plan_title"`
	PlanDescription string `json:"plan_description"`
}

package kothdomain

import "time"

// SubmissionStatus tracks a track through review.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionReviewing SubmissionStatus = "reviewing"
	SubmissionReviewed  SubmissionStatus = "reviewed"
)

// SubmissionType separates the regular queue from the KOTH queue.
type SubmissionType string

const (
	SubmissionRegular SubmissionType = "regular"
	SubmissionKoth    SubmissionType = "koth"
)

// PriorityTimestamp is the ordering key given to fast-tracked submissions.
var PriorityTimestamp = time.Unix(0, 0).UTC()

// AllowedPredecessors lists the statuses a submission may hold before moving to next.
// reviewed -> reviewed is allowed so a defending champion's track can be marked again.
func AllowedPredecessors(next SubmissionStatus) []SubmissionStatus {
	switch next {
	case SubmissionReviewing:
		return []SubmissionStatus{SubmissionPending}
	case SubmissionReviewed:
		return []SubmissionStatus{SubmissionReviewing, SubmissionReviewed}
	default:
		return nil
	}
}

// CanTransition reports whether a submission may move from -> to.
func CanTransition(from, to SubmissionStatus) bool {
	for _, s := range AllowedPredecessors(to) {
		if s == from {
			return true
		}
	}
	return false
}

package enums

import "fmt"

// Rating is the ordinal 1-5 survey score attached to feedback.
type Rating int

const (
	RatingPoor      Rating = 1
	RatingFair      Rating = 2
	RatingGood      Rating = 3
	RatingVeryGood  Rating = 4
	RatingExcellent Rating = 5
)

// IsValid reports whether the rating falls inside the survey scale.
func (r Rating) IsValid() bool {
	return r >= RatingPoor && r <= RatingExcellent
}

// Label returns the survey wording for the score.
func (r Rating) Label() string {
	switch r {
	case RatingPoor:
		return "poor"
	case RatingFair:
		return "fair"
	case RatingGood:
		return "good"
	case RatingVeryGood:
		return "very good"
	case RatingExcellent:
		return "excellent"
	}
	return "unknown"
}

// ParseRating converts raw input into a Rating.
func ParseRating(value int) (Rating, error) {
	r := Rating(value)
	if !r.IsValid() {
		return 0, fmt.Errorf("invalid rating %d", value)
	}
	return r, nil
}

// Package golf records rounds played on courses, hole by hole.
package golf

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCourseName = errors.New("course name cannot be empty")
	ErrBadHole         = errors.New("hole number out of range")
	ErrBadSlope        = errors.New("slope rating must be between 55 and 155")
)

// standardSlope is the slope of a course of average difficulty.
var standardSlope = decimal.NewFromInt(113)

type Course struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenantId"`
	Name          string          `json:"name"`
	Location      string          `json:"location,omitempty"`
	NumberOfHoles int             `json:"numberOfHoles"`
	TotalPar      int             `json:"totalPar"`
	CourseRating  decimal.Decimal `json:"courseRating"`
	SlopeRating   int             `json:"slopeRating"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func NewCourse(tenant uuid.UUID, name string, holes, par int, rating decimal.Decimal, slope int) (*Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCourseName
	}
	if slope < 55 || slope > 155 {
		return nil, ErrBadSlope
	}
	if holes <= 0 {
		holes = 18
	}
	return &Course{
		ID:            uuid.New(),
		TenantID:      tenant,
		Name:          name,
		NumberOfHoles: holes,
		TotalPar:      par,
		CourseRating:  rating,
		SlopeRating:   slope,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (c *Course) Key() uuid.UUID       { return c.ID }
func (c *Course) TenantKey() uuid.UUID { return c.TenantID }

type Round struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenantId"`
	UserID     uuid.UUID `json:"userId"`
	CourseID   uuid.UUID `json:"courseId"`
	PlayedDate time.Time `json:"playedDate"`
	TotalScore int       `json:"totalScore"`
	TotalPar   int       `json:"totalPar"`
	Weather    string    `json:"weather,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewRound(c *Course, user uuid.UUID, played time.Time) *Round {
	return &Round{
		ID:         uuid.New(),
		TenantID:   c.TenantID,
		UserID:     user,
		CourseID:   c.ID,
		PlayedDate: played.UTC(),
		TotalPar:   c.TotalPar,
		CreatedAt:  time.Now().UTC(),
	}
}

func (r *Round) Key() uuid.UUID       { return r.ID }
func (r *Round) TenantKey() uuid.UUID { return r.TenantID }

// ToPar is strokes over (positive) or under (negative) par.
func (r *Round) ToPar() int { return r.TotalScore - r.TotalPar }

// Differential is the handicap differential of the round on c, rounded to
// one decimal: (score - rating) * 113 / slope. A course without a slope
// rating has no differential and yields zero.
func (r *Round) Differential(c *Course) decimal.Decimal {
	if c == nil || c.SlopeRating <= 0 {
		return decimal.Zero
	}
	score := decimal.NewFromInt(int64(r.TotalScore))
	return score.Sub(c.CourseRating).
		Mul(standardSlope).
		Div(decimal.NewFromInt(int64(c.SlopeRating))).
		Round(1)
}

type HoleScore struct {
	ID                uuid.UUID `json:"id"`
	TenantID          uuid.UUID `json:"tenantId"`
	RoundID           uuid.UUID `json:"roundId"`
	HoleNumber        int       `json:"holeNumber"`
	Par               int       `json:"par"`
	Score             int       `json:"score"`
	Putts             int       `json:"putts"`
	FairwayHit        bool      `json:"fairwayHit"`
	GreenInRegulation bool      `json:"greenInRegulation"`
	CreatedAt         time.Time `json:"createdAt"`
}

func NewHoleScore(r *Round, hole, par, score, putts int) (*HoleScore, error) {
	if hole < 1 || hole > 18 {
		return nil, ErrBadHole
	}
	return &HoleScore{
		ID:         uuid.New(),
		TenantID:   r.TenantID,
		RoundID:    r.ID,
		HoleNumber: hole,
		Par:        par,
		Score:      score,
		Putts:      putts,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (h *HoleScore) Key() uuid.UUID       { return h.ID }
func (h *HoleScore) TenantKey() uuid.UUID { return h.TenantID }

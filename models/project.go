package models

import (
	"strings"
	"time"
)

type Phase string

const (
	PhaseJustIdea           Phase = "Just Idea"
	PhaseValidation         Phase = "Validation & Research"
	PhaseProductDevelopment Phase = "Product Development"
	PhaseGoToMarket         Phase = "Go-To-Market"
	PhaseScaling            Phase = "Scaling & Operations"
	PhaseProfitGrowth       Phase = "Profit & Growth"
	PhaseUnicorn            Phase = "Unicorn"
	PhaseClosed             Phase = "Closed & Archived"
)

// Phases lists every stage in lifecycle order.
var Phases = []Phase{
	PhaseJustIdea,
	PhaseValidation,
	PhaseProductDevelopment,
	PhaseGoToMarket,
	PhaseScaling,
	PhaseProfitGrowth,
	PhaseUnicorn,
	PhaseClosed,
}

func (p Phase) IsValid() bool {
	for _, phase := range Phases {
		if p == phase {
			return true
		}
	}
	return false
}

type Project struct {
	ID               string            `bson:"_id,omitempty" json:"id"`
	Name             string            `bson:"name" json:"name"`
	Description      string            `bson:"description" json:"description"`
	JoinLink         string            `bson:"joinLink" json:"joinLink"`
	CoverImage       string            `bson:"coverImage" json:"coverImage"`
	Images           []string          `bson:"images" json:"images"`
	Tags             []string          `bson:"tags" json:"tags"`
	RequiredTalents  []string          `bson:"requiredTalents" json:"requiredTalents"`
	Phase            Phase             `bson:"phase" json:"phase"`
	Team             []TeamMember      `bson:"team" json:"team"`
	Comments         []Comment         `bson:"comments" json:"comments"`
	SuggestedIdeas   []SuggestedIdea   `bson:"suggestedIdeas" json:"suggestedIdeas"`
	Profit           float64           `bson:"profit" json:"profit"`
	Loss             float64           `bson:"loss" json:"loss"`
	FinancialHistory []FinancialRecord `bson:"financialHistory" json:"financialHistory"`
	CreatedAt        time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt" json:"updatedAt"`
}

type TeamMember struct {
	Name        string `bson:"name" json:"name" validate:"required"`
	Email       string `bson:"email" json:"email" validate:"required,email"`
	ImageURL    string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ContactLink string `bson:"contactLink,omitempty" json:"contactLink,omitempty"`
	Role        string `bson:"role,omitempty" json:"role,omitempty"`
	Shares      int    `bson:"shares" json:"shares" validate:"gte=0"`
}

// OwnershipFraction divides the member's shares by a fixed 100, the way the
// listing has always displayed equity.
func (m TeamMember) OwnershipFraction() float64 {
	return float64(m.Shares) / 100
}

type SuggestedIdea struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

type FinancialRecord struct {
	ID          string    `bson:"id" json:"id"`
	Date        time.Time `bson:"date" json:"date"`
	Amount      float64   `bson:"amount" json:"amount" validate:"gte=0"`
	IsProfit    bool      `bson:"isProfit" json:"isProfit"`
	Description string    `bson:"description" json:"description"`
}

// Normalize replaces nil slices with empty ones and fills a missing phase.
// Stored documents written by older clients omit these fields.
func (p *Project) Normalize() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.RequiredTalents == nil {
		p.RequiredTalents = []string{}
	}
	if p.Team == nil {
		p.Team = []TeamMember{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.SuggestedIdeas == nil {
		p.SuggestedIdeas = []SuggestedIdea{}
	}
	if p.FinancialHistory == nil {
		p.FinancialHistory = []FinancialRecord{}
	}
	if p.Phase == "" {
		p.Phase = PhaseJustIdea
	}
	for i := range p.Comments {
		p.Comments[i].Normalize()
	}
}

// AddFinancialRecord appends rec and adds its amount to the matching total.
func (p *Project) AddFinancialRecord(rec FinancialRecord) {
	p.FinancialHistory = append(p.FinancialHistory, rec)
	if rec.IsProfit {
		p.Profit += rec.Amount
	} else {
		p.Loss += rec.Amount
	}
}

// RemoveFinancialRecord drops the record with the given id and subtracts its
// amount from the matching total. Totals are not re-summed, so an existing
// mismatch between totals and history is carried forward.
func (p *Project) RemoveFinancialRecord(id string) (FinancialRecord, bool) {
	for i, rec := range p.FinancialHistory {
		if rec.ID != id {
			continue
		}
		p.FinancialHistory = append(p.FinancialHistory[:i:i], p.FinancialHistory[i+1:]...)
		if rec.IsProfit {
			p.Profit -= rec.Amount
		} else {
			p.Loss -= rec.Amount
		}
		return rec, true
	}
	return FinancialRecord{}, false
}

// RecomputeTotals re-sums profit and loss from the history.
func (p *Project) RecomputeTotals() {
	p.Profit, p.Loss = SumFinancials(p.FinancialHistory)
}

// TotalsInSync reports whether the cached totals match the history.
func (p *Project) TotalsInSync() bool {
	profit, loss := SumFinancials(p.FinancialHistory)
	return profit == p.Profit && loss == p.Loss
}

func SumFinancials(records []FinancialRecord) (profit, loss float64) {
	for _, rec := range records {
		if rec.IsProfit {
			profit += rec.Amount
		} else {
			loss += rec.Amount
		}
	}
	return profit, loss
}

// TeamShare returns each member's shares divided by the whole team's shares.
// A team without shares yields zeros.
func (p *Project) TeamShare(member TeamMember) float64 {
	total := 0
	for _, m := range p.Team {
		total += m.Shares
	}
	if total == 0 {
		return 0
	}
	return float64(member.Shares) / float64(total)
}

// ParseList splits a comma separated form value, trimming every entry and
// dropping empty ones. Duplicates are kept.
func ParseList(input string) []string {
	out := []string{}
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

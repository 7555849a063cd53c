package models

type Analytics struct {
	ID          string `bson:"_id,omitempty" json:"id,omitempty"`
	TotalViews  int64  `bson:"totalViews" json:"totalViews"`
	TotalClicks int64  `bson:"totalClicks" json:"totalClicks"`
	ActiveUsers int64  `bson:"activeUsers" json:"activeUsers"`
}

// Folders groups projects the way the home page shows them.
type Folders struct {
	Ideas    int `json:"ideas"`
	Startups int `json:"startups"`
	Unicorns int `json:"unicorns"`
}

type Summary struct {
	Projects    int           `json:"projects"`
	ByPhase     map[Phase]int `json:"byPhase"`
	TotalProfit float64       `json:"totalProfit"`
	TotalLoss   float64       `json:"totalLoss"`
	Folders     Folders       `json:"folders"`
}

func CountFolders(projects []Project) Folders {
	var f Folders
	for _, p := range projects {
		switch p.Phase {
		case PhaseJustIdea:
			f.Ideas++
		case PhaseProductDevelopment, PhaseGoToMarket, PhaseScaling, PhaseProfitGrowth:
			f.Startups++
		case PhaseUnicorn:
			f.Unicorns++
		}
	}
	return f
}

// AdminCredentials is the single jadmin/jauth document.
type AdminCredentials struct {
	Password1 string `bson:"password1"`
	Password2 string `bson:"password2"`
}

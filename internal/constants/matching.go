package constants

type MatchingType string

const (
	MatchingManual MatchingType = "manual"
	MatchingAuto   MatchingType = "auto"
)

func (m MatchingType) Valid() bool {
	return m == MatchingManual || m == MatchingAuto
}

type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

func (u Urgency) Valid() bool {
	return u == UrgencyHigh || u == UrgencyMedium || u == UrgencyLow
}

type SortKey string

const (
	SortRecent      SortKey = "recent"
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
	SortDeadlineAsc SortKey = "deadline_asc"
)

// FilterAll is accepted by feed filters as "no filter".
const FilterAll = "all"

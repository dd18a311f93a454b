package task

type Kind string

const (
	KindFetch   Kind = "fetch"
	KindAnalyze Kind = "analyze"
	KindReport  Kind = "report"
	KindCustom  Kind = "custom"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFetch, KindAnalyze, KindReport, KindCustom:
		return true
	}
	return false
}

type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

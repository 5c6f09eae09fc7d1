package layout

import "math"

// State 轮播状态
type State int

const (
	StateSmall  State = iota // 小窗
	StateFull                // 全屏
	StateHidden              // 隐藏
)

// stateCount 状态数，stateIndex(t) = floor(t/P) mod stateCount
const stateCount = 3

// epsilon 小于该值的剩余时长视为浮点误差，不再生成分段
const epsilon = 1e-6

func (s State) String() string {
	switch s {
	case StateSmall:
		return "small"
	case StateFull:
		return "full"
	case StateHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Segment 轮播时间表中的一段，覆盖 [Start, Start+Duration)
type Segment struct {
	Index    int     `json:"index"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	State    State   `json:"state"`
}

// CyclicSchedule 生成轮播分段
// 分段首尾相接覆盖 [0, total)，除最后一段外每段时长均为 period
// total 或 period 非正时返回 nil
func CyclicSchedule(total, period float64) []Segment {
	if total <= 0 || period <= 0 {
		return nil
	}

	n := int(math.Ceil(total/period - epsilon))
	segments := make([]Segment, 0, n)
	for i := 0; ; i++ {
		start := float64(i) * period
		remaining := total - start
		if remaining <= epsilon {
			break
		}
		segments = append(segments, Segment{
			Index:    i,
			Start:    start,
			Duration: math.Min(period, remaining),
			State:    State(i % stateCount),
		})
	}
	return segments
}

// StateAt 返回时刻 t 所处的状态
func StateAt(t, period float64) State {
	if period <= 0 || t < 0 {
		return StateSmall
	}
	return State(int(math.Floor(t/period)) % stateCount)
}

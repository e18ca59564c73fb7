// arena/stats.go
package arena

// StatType enumerates the per-arena counters kept for every player.
type StatType string

const (
	StatKills  StatType = "kills"
	StatDeaths StatType = "deaths"
	StatWins   StatType = "wins"
	StatLosses StatType = "losses"
	StatDamage StatType = "damage"
)

// StatMap is a per-player, per-arena counter map.
type StatMap struct {
	counters map[StatType]int
}

func NewStatMap() *StatMap {
	return &StatMap{counters: make(map[StatType]int)}
}

func (m *StatMap) Get(t StatType) int {
	return m.counters[t]
}

func (m *StatMap) Inc(t StatType) {
	m.Add(t, 1)
}

func (m *StatMap) Add(t StatType, value int) {
	m.counters[t] += value
}

func (m *StatMap) Set(t StatType, value int) {
	m.counters[t] = value
}

// Snapshot copies the counters, for handing to the persistence layer.
func (m *StatMap) Snapshot() map[StatType]int {
	out := make(map[StatType]int, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

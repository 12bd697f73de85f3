package arena

import (
	"encoding/json"
	"sort"

	"github.com/bugduel/server/internal/geom"
)

// Turn is an indexed, timestamped batch of per-entity impulse commands.
// Turns are immutable once constructed: the scheduler consumes each one at
// most once and appends it verbatim to the turn history.
type Turn struct {
	ImpulseIntents ImpulseIntents `json:"impulse_intents"`
	Timestamp      float64        `json:"timestamp"`
	Index          uint64         `json:"index"`
}

// ImpulseIntents maps entity ids to intended impulse vectors. On the wire
// it is a list of id/intent pairs, not a JSON object, because object keys
// would have to be strings.
type ImpulseIntents map[EntityID]geom.Vec2

type intentPair struct {
	ID     EntityID  `json:"id"`
	Intent geom.Vec2 `json:"intent"`
}

func (m ImpulseIntents) MarshalJSON() ([]byte, error) {
	pairs := make([]intentPair, 0, len(m))
	for id, intent := range m {
		pairs = append(pairs, intentPair{ID: id, Intent: intent})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].ID < pairs[j].ID })
	return json.Marshal(pairs)
}

func (m *ImpulseIntents) UnmarshalJSON(data []byte) error {
	var pairs []intentPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(ImpulseIntents, len(pairs))
	for _, p := range pairs {
		out[p.ID] = p.Intent
	}
	*m = out
	return nil
}

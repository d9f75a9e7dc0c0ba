package component

// RiftCapabilities are derived from the rift attunement level and refreshed
// whenever a RiftCapabilitiesUpdated event fires.
type RiftCapabilities struct {
	Level                int     `json:"level"`
	MaxRiftDistance      float64 `json:"max_rift_distance"`
	MaxChainCount        int     `json:"max_chain_count"`
	PhantomDodgeDuration float64 `json:"phantom_dodge_duration"` // seconds
	PhantomDodgeDistance float64 `json:"phantom_dodge_distance"`
	CanAerialReset       bool    `json:"can_aerial_reset"`
	CanCounterRift       bool    `json:"can_counter_rift"`
}

// StyleCapabilities are derived from the style mastery level.
type StyleCapabilities struct {
	Level           int     `json:"level"`
	StyleMultiplier float64 `json:"style_multiplier"`
	StylePointCap   float64 `json:"style_point_cap"`
	DecayRate       float64 `json:"decay_rate"` // points per second
}

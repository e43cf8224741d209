package generator

// Tier identifies one rung of the generation ladder
type Tier int

// Generation tiers, in downgrade order
const (
	TierFullAI Tier = iota + 1
	TierEnhancedTemplate
	TierDeterministicFallback
)

// String returns the tier's metric and log label
func (t Tier) String() string {
	switch t {
	case TierFullAI:
		return "full_ai"
	case TierEnhancedTemplate:
		return "enhanced_template"
	case TierDeterministicFallback:
		return "deterministic_fallback"
	default:
		return "unknown"
	}
}

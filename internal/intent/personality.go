package intent

import (
	"math/rand"
	"sync"
)

// personalityCatalog holds the built-in system roles used to condition the
// answer model when no personality was configured.
var personalityCatalog = []string{
	// Professional and friendly personalities
	"You are a helpful and friendly assistant.",
	"You are a witty and humorous assistant.",
	"You are a calm and professional assistant.",
	"You are a knowledgeable and detail-oriented assistant.",
	"You are a cheerful and enthusiastic assistant.",
	"You are a serious and efficient assistant.",
	"You are a snarky but helpful assistant.",
	"You are a compassionate and empathetic assistant.",
	"You are a playful and creative assistant.",
	"You are a wise and sage-like assistant.",
	"You are a bold and adventurous assistant.",
	"You are a meticulous and detail-oriented assistant.",
	"You are a relaxed and easygoing assistant.",
	"You are an energetic and enthusiastic assistant.",
	"You are a no-nonsense and direct assistant.",
	"You are a supportive and encouraging assistant.",
	"You are a formal and respectful assistant.",
	// Less professional and fun personalities
	"You are a quirky and eccentric assistant.",
	"You are a sarcastic and witty assistant.",
	"You are a laid-back and chill assistant.",
	"You are a mischievous and playful assistant.",
	"You are an overly enthusiastic assistant.",
	"You are a nerdy and geeky assistant.",
	"You are a dramatic and theatrical assistant.",
	"You are a rebellious and edgy assistant.",
	"You are a cool and hip assistant.",
	"You are a dreamy and whimsical assistant.",
	"You are a sassy and a tad mean assistant.",
}

// PersonalityCatalog returns a copy of the built-in role catalog.
func PersonalityCatalog() []string {
	out := make([]string, len(personalityCatalog))
	copy(out, personalityCatalog)
	return out
}

// Personality is the process-wide system-role cell. It starts unset and is
// initialized at most once: concurrent first uses agree on a single value.
// Callers may replace the stored value explicitly at any time.
type Personality struct {
	mu   sync.Mutex
	role string
	pick func([]string) string
}

// NewPersonality returns an unset cell.
func NewPersonality() *Personality {
	return &Personality{pick: randomPick}
}

// NewPersonalityWith returns a cell preset to role; empty leaves it unset.
func NewPersonalityWith(role string) *Personality {
	p := NewPersonality()
	p.role = role
	return p
}

// Role returns the current system role, picking one at random from the
// catalog on first use. The read-modify-write is serialized so exactly one
// random choice is ever observable.
func (p *Personality) Role() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.role == "" {
		p.role = p.pick(personalityCatalog)
	}
	return p.role
}

// Set replaces the stored role going forward. There is no versioning and
// no rollback.
func (p *Personality) Set(role string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = role
}

// IsSet reports whether a role has been chosen or configured.
func (p *Personality) IsSet() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.role != ""
}

func randomPick(catalog []string) string {
	return catalog[rand.Intn(len(catalog))]
}

package provider

import (
	"math/rand/v2"

	"github.com/ashureev/riddler/internal/domain"
)

// builtinRiddles are served when every upstream fails.
var builtinRiddles = []domain.Riddle{
	{
		Riddle: "I have keys but no locks. I have space but no room. You can enter, but you can't go outside. What am I?",
		Hint:   "You'll find me where letters live.",
		Answer: "A keyboard",
	},
	{
		Riddle: "The more of me you take, the more you leave behind. What am I?",
		Hint:   "Think about walking.",
		Answer: "Footsteps",
	},
	{
		Riddle: "I speak without a mouth and hear without ears. I have no body, but I come alive with the wind. What am I?",
		Hint:   "Shout in the mountains and you'll hear me.",
		Answer: "An echo",
	},
	{
		Riddle: "What has a neck but no head, and wears a cap?",
		Hint:   "You might pour from me.",
		Answer: "A bottle",
	},
	{
		Riddle: "I'm light as a feather, yet the strongest person can't hold me for five minutes. What am I?",
		Hint:   "You do it without thinking.",
		Answer: "Breath",
	},
}

const builtinSource = "builtin"

// Builtin returns a riddle from the built-in collection, marked as a fallback.
func Builtin() domain.Riddle {
	r := builtinRiddles[rand.IntN(len(builtinRiddles))]
	r.Source = builtinSource
	r.Fallback = true
	return r
}

package tags

import "github.com/yohamta/donburi"

var Body = donburi.NewTag().SetName("Body")

// Resolv tags for exported collision spaces
const (
	ResolvSolid  = "solid"
	ResolvWater  = "water"
	ResolvLadder = "ladder"
	ResolvDamage = "damage"
	ResolvSlow   = "slow"
	ResolvOneWay = "oneway"
	ResolvBody   = "body"
)

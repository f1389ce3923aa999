package domain

// Capabilities are the boolean endorsement rights a person holds within one
// container. They are resolved by the actor directory, not stored here.
type Capabilities struct {
	ProductOwner        bool
	ImplementationOwner bool
	EndorseGoals        bool
	EndorseProject      bool
	EndorseEnvironment  bool
	EndorseSystem       bool
}

// CanEndorse reports whether the holder may grant the role endorsement for
// requirements of the given family. Product owners may endorse any family.
func (c Capabilities) CanEndorse(family Family) bool {
	if c.ProductOwner {
		return true
	}
	switch family {
	case FamilyGoals:
		return c.EndorseGoals
	case FamilyProject:
		return c.EndorseProject
	case FamilyEnvironment:
		return c.EndorseEnvironment
	case FamilySystem:
		return c.EndorseSystem
	}
	return false
}

package component

// Character identifies the owner of a progression entity.
// Pure data, zero methods: all mutations happen in system functions.
type Character struct {
	CharacterID string // stable persistence key
	Name        string
}

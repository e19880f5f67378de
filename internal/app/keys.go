package app

import "github.com/vivasaayi/PersonalMailClient-sub001/internal/keys"

// KeyMap is re-exported from the keys package so code that references
// app.KeyMap does not need the extra import.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}

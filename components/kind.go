// Package components defines the value types shared by the simulation layers.
package components

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags a particle with its material behaviour.
type Kind uint8

const (
	KindDefault Kind = iota // Plain elastic disc
	KindLiquid              // Softer mutual repulsion between liquid pairs
	KindSand                // Dry friction on contact
	KindGas                 // Buoyant, air-damped
	KindStone               // Static scenery, never integrated

	NumKinds = int(KindStone) + 1
)

var kindNames = [NumKinds]string{"default", "liquid", "sand", "gas", "stone"}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return KindDefault, fmt.Errorf("unknown particle kind %q", s)
}

// Mobile reports whether particles of this kind are position-integrated.
func (k Kind) Mobile() bool {
	return k != KindStone
}

// UnmarshalYAML decodes a kind from its name.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a kind as its name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

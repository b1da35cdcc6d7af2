package models

// Loader is the mod-loading framework an add-on build targets. The set is
// closed: compatibility decisions switch over it exhaustively.
type Loader string

const (
	VANILLA  Loader = "vanilla"
	FABRIC   Loader = "fabric"
	FORGE    Loader = "forge"
	NEOFORGE Loader = "neoforge"
)

func AllLoaders() []Loader {
	return []Loader{VANILLA, FABRIC, FORGE, NEOFORGE}
}

func (l Loader) String() string {
	return string(l)
}

// FacetCategory maps a loader to the category name the remote catalog uses
// in search facets. The catalog has no "vanilla" category; plain-game
// add-ons are filed under "minecraft".
func (l Loader) FacetCategory() string {
	switch l {
	case VANILLA:
		return "minecraft"
	case FABRIC:
		return "fabric"
	case FORGE:
		return "forge"
	case NEOFORGE:
		return "neoforge"
	}
	return "minecraft"
}

type UnknownLoaderError struct {
	Value string
}

func (e *UnknownLoaderError) Error() string {
	return "unknown loader: " + e.Value
}

func ParseLoader(value string) (Loader, error) {
	for _, loader := range AllLoaders() {
		if string(loader) == value {
			return loader, nil
		}
	}
	return "", &UnknownLoaderError{Value: value}
}

package models

// Kind is the add-on category.
type Kind string

const (
	ModKind          Kind = "mod"
	ResourcepackKind Kind = "resourcepack"
	ShaderpackKind   Kind = "shaderpack"
)

func AllKinds() []Kind {
	return []Kind{ModKind, ResourcepackKind, ShaderpackKind}
}

func (k Kind) String() string {
	return string(k)
}

// ProjectType is the remote catalog's project_type facet value for the kind.
func (k Kind) ProjectType() string {
	switch k {
	case ModKind:
		return "mod"
	case ResourcepackKind:
		return "resourcepack"
	case ShaderpackKind:
		return "shader"
	}
	return "mod"
}

// EffectiveFacetCategory returns the loader category used when searching the
// catalog for this kind. Resource packs are loader-independent and live under
// the plain-game category; shader packs are filed under the iris pipeline.
// Mods use the requested loader as-is.
func (k Kind) EffectiveFacetCategory(loader Loader) string {
	switch k {
	case ResourcepackKind:
		return "minecraft"
	case ShaderpackKind:
		return "iris"
	default:
		return loader.FacetCategory()
	}
}

// ActiveDirName is the directory the game process reads this kind from.
func (k Kind) ActiveDirName() string {
	switch k {
	case ModKind:
		return "mods"
	case ResourcepackKind:
		return "resourcepacks"
	case ShaderpackKind:
		return "shaderpacks"
	}
	return "mods"
}

// AvailableDirName is the sibling area holding every downloaded file of this
// kind, independent of what is currently active.
func (k Kind) AvailableDirName() string {
	return k.ActiveDirName() + "_available"
}

type UnknownKindError struct {
	Value string
}

func (e *UnknownKindError) Error() string {
	return "unknown addon kind: " + e.Value
}

func ParseKind(value string) (Kind, error) {
	for _, kind := range AllKinds() {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", &UnknownKindError{Value: value}
}

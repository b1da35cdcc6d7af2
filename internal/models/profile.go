package models

// ProfileJson is the persisted launcher profile (launcher.json). The per-kind
// lists hold user keywords, not catalog ids; resolution turns them into
// AddonRecords.
type ProfileJson struct {
	Loader               Loader   `json:"loader"`
	GameVersion          string   `json:"gameVersion"`
	GameDir              string   `json:"gameDir,omitempty"`
	Mods                 []string `json:"mods"`
	Resourcepacks        []string `json:"resourcepacks"`
	Shaderpacks          []string `json:"shaderpacks"`
	AllowVersionFallback bool     `json:"allowVersionFallback,omitempty"`
}

func (p ProfileJson) KeywordsFor(kind Kind) []string {
	switch kind {
	case ModKind:
		return p.Mods
	case ResourcepackKind:
		return p.Resourcepacks
	case ShaderpackKind:
		return p.Shaderpacks
	}
	return nil
}

// Requests flattens the profile's keyword lists into resolution inputs, in
// kind order then list order.
func (p ProfileJson) Requests() []AddonRequest {
	var requests []AddonRequest
	for _, kind := range AllKinds() {
		for _, keyword := range p.KeywordsFor(kind) {
			requests = append(requests, AddonRequest{Keyword: keyword, Kind: kind})
		}
	}
	return requests
}

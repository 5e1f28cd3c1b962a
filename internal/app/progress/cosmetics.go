package progress

import (
	"fmt"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

const (
	prefixCosmeticUnlocked = "cosmetic_unlocked_" // + category
	prefixCosmeticSelected = "cosmetic_selected_" // + category
	prefixPetLevel         = "pet_level_"         // + pet id
)

// Coins needed to evolve a pet from the level used as index.
var petEvolveCost = map[int]int{1: 150, 2: 300}

// Map frames are earned per level at these correct-answer counts.
var mapFrameTiers = []struct {
	at     int
	suffix string
	name   string
}{
	{10, "bronze", "Bronze"},
	{20, "silver", "Prata"},
	{30, "gold", "Ouro"},
}

// ─── Catalog ────────────────────────────────────────────────────────────────

var catalog = buildCatalog()

func buildCatalog() []domain.Cosmetic {
	c := []domain.Cosmetic{
		{ID: "theme_classic", Category: domain.CosmeticTheme, Name: "Clássico", Default: true},
		{ID: "theme_night", Category: domain.CosmeticTheme, Name: "Noturno", Price: 200},
		{ID: "theme_ocean", Category: domain.CosmeticTheme, Name: "Oceano", Price: 300},
		{ID: "theme_neon", Category: domain.CosmeticTheme, Name: "Neon", Premium: true},

		{ID: "frame_basic", Category: domain.CosmeticFrame, Name: "Básica", Default: true},

		{ID: "title_novato", Category: domain.CosmeticTitle, Name: "Novato", Default: true},
		{ID: "title_constante", Category: domain.CosmeticTitle, Name: "Constante"},
		{ID: "title_imparavel", Category: domain.CosmeticTitle, Name: "Imparável"},
		{ID: "title_guardiao", Category: domain.CosmeticTitle, Name: "Guardião do Portal"},

		{ID: "pet_owl", Category: domain.CosmeticPet, Name: "Coruja", Default: true},
		{ID: "pet_fox", Category: domain.CosmeticPet, Name: "Raposa", Price: 250},
		{ID: "pet_dragon", Category: domain.CosmeticPet, Name: "Dragão", Premium: true},

		{ID: "vfx_none", Category: domain.CosmeticVFX, Name: "Nenhum", Default: true},
		{ID: "vfx_sparks", Category: domain.CosmeticVFX, Name: "Faíscas", Price: 150},
		{ID: "vfx_confetti", Category: domain.CosmeticVFX, Name: "Confete", Price: 250},
	}
	for _, l := range domain.OrderedLevels {
		for _, t := range mapFrameTiers {
			c = append(c, domain.Cosmetic{
				ID:       MapFrameID(l, t.at),
				Category: domain.CosmeticFrame,
				Name:     fmt.Sprintf("%s (%s)", t.name, l),
			})
		}
	}
	return c
}

// MapFrameID names the frame earned at the given correct count on level.
func MapFrameID(level domain.LevelID, at int) string {
	for _, t := range mapFrameTiers {
		if t.at == at {
			return "frame_" + string(level) + "_" + t.suffix
		}
	}
	return ""
}

// Catalog returns every cosmetic, optionally filtered to one category.
func Catalog(cat domain.CosmeticCategory) []domain.Cosmetic {
	var out []domain.Cosmetic
	for _, c := range catalog {
		if cat == "" || c.Category == cat {
			out = append(out, c)
		}
	}
	return out
}

// LookupCosmetic finds a catalog entry.
func LookupCosmetic(cat domain.CosmeticCategory, id string) (domain.Cosmetic, bool) {
	for _, c := range catalog {
		if c.Category == cat && c.ID == id {
			return c, true
		}
	}
	return domain.Cosmetic{}, false
}

func defaultCosmetic(cat domain.CosmeticCategory) string {
	for _, c := range catalog {
		if c.Category == cat && c.Default {
			return c.ID
		}
	}
	return ""
}

func validCategory(s string) bool {
	for _, c := range domain.CosmeticCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

func validPet(s string) bool {
	_, ok := LookupCosmetic(domain.CosmeticPet, s)
	return ok
}

// ─── Ownership ──────────────────────────────────────────────────────────────

// UnlockCosmetic grants a cosmetic without charging coins (rewards,
// premium purchases made elsewhere). Reports whether it was newly granted.
func (s *Store) UnlockCosmetic(cat domain.CosmeticCategory, id string) (bool, error) {
	c, ok := LookupCosmetic(cat, id)
	if !ok {
		return false, domain.ErrUnknownCosmetic
	}
	if c.Default {
		return false, nil
	}
	return s.addToSet(s.scope.Key(prefixCosmeticUnlocked+string(cat)), id), nil
}

// IsCosmeticUnlocked reports ownership. Defaults are always owned.
func (s *Store) IsCosmeticUnlocked(cat domain.CosmeticCategory, id string) bool {
	c, ok := LookupCosmetic(cat, id)
	if !ok {
		return false
	}
	if c.Default {
		return true
	}
	_, owned := s.getSet(s.scope.Key(prefixCosmeticUnlocked + string(cat)))[id]
	return owned
}

// UnlockedCosmetics returns the owned ids of a category in catalog order.
func (s *Store) UnlockedCosmetics(cat domain.CosmeticCategory) []string {
	owned := s.getSet(s.scope.Key(prefixCosmeticUnlocked + string(cat)))
	var out []string
	for _, c := range Catalog(cat) {
		if _, ok := owned[c.ID]; ok || c.Default {
			out = append(out, c.ID)
		}
	}
	return out
}

// BuyCosmetic spends coins on a cosmetic that is for sale.
func (s *Store) BuyCosmetic(cat domain.CosmeticCategory, id string) error {
	c, ok := LookupCosmetic(cat, id)
	if !ok {
		return domain.ErrUnknownCosmetic
	}
	if s.IsCosmeticUnlocked(cat, id) {
		return domain.ErrCosmeticOwned
	}
	if c.Premium || c.Price <= 0 {
		return domain.ErrCosmeticNotOnSale
	}
	if !s.SpendCoins(c.Price) {
		return domain.ErrInsufficientCoins
	}
	metrics.CoinsSpent.WithLabelValues("cosmetic").Add(float64(c.Price))
	s.addToSet(s.scope.Key(prefixCosmeticUnlocked+string(cat)), id)
	return nil
}

// ─── Selection ──────────────────────────────────────────────────────────────

// SelectCosmetic equips an owned cosmetic in its slot.
func (s *Store) SelectCosmetic(cat domain.CosmeticCategory, id string) error {
	if _, ok := LookupCosmetic(cat, id); !ok {
		return domain.ErrUnknownCosmetic
	}
	if !s.IsCosmeticUnlocked(cat, id) {
		return domain.ErrCosmeticLocked
	}
	key := s.scope.Key(prefixCosmeticSelected + string(cat))
	s.persisted(key, s.secure.PutString(key, id))
	return nil
}

// SelectedCosmetic returns the equipped id of a slot. A stale or missing
// selection reads as the category default.
func (s *Store) SelectedCosmetic(cat domain.CosmeticCategory) string {
	id := s.secure.GetString(s.scope.Key(prefixCosmeticSelected+string(cat)), "")
	if id != "" && s.IsCosmeticUnlocked(cat, id) {
		return id
	}
	return defaultCosmetic(cat)
}

// ─── Pets ───────────────────────────────────────────────────────────────────

// PetLevel returns the evolution level of a pet, always within bounds.
func (s *Store) PetLevel(petID string) int {
	if !validPet(petID) {
		return domain.PetMinLevel
	}
	lvl := s.secure.GetInt(s.scope.Key(prefixPetLevel+petID), domain.PetMinLevel)
	return min(max(lvl, domain.PetMinLevel), domain.PetMaxLevel)
}

// EvolvePet spends coins to raise an owned pet one level.
func (s *Store) EvolvePet(petID string) (int, error) {
	if !validPet(petID) {
		return 0, domain.ErrUnknownCosmetic
	}
	if !s.IsCosmeticUnlocked(domain.CosmeticPet, petID) {
		return 0, domain.ErrCosmeticLocked
	}
	lvl := s.PetLevel(petID)
	if lvl >= domain.PetMaxLevel {
		return lvl, domain.ErrPetMaxEvolution
	}
	cost := petEvolveCost[lvl]
	if !s.SpendCoins(cost) {
		return lvl, domain.ErrInsufficientCoins
	}
	metrics.CoinsSpent.WithLabelValues("pet").Add(float64(cost))

	key := s.scope.Key(prefixPetLevel + petID)
	s.persisted(key, s.secure.PutInt(key, lvl+1))
	return lvl + 1, nil
}

// ─── Map rewards ────────────────────────────────────────────────────────────

// CheckMapRewards unlocks every map frame the level's correct count has
// reached and returns the ids granted by this call.
func (s *Store) CheckMapRewards(level domain.LevelID) []string {
	if !level.Valid() || level == domain.LevelEnigma {
		return nil
	}
	progress := s.MapProgress(level)
	var granted []string
	for _, t := range mapFrameTiers {
		if progress < t.at {
			break
		}
		id := MapFrameID(level, t.at)
		if ok, _ := s.UnlockCosmetic(domain.CosmeticFrame, id); ok {
			granted = append(granted, id)
		}
	}
	return granted
}

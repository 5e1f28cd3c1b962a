package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
)

// ─── Cosmetics ───────────────────────────────────────────────────────────────

type slotView struct {
	Category domain.CosmeticCategory `json:"category"`
	Selected string                  `json:"selected"`
	Unlocked []string                `json:"unlocked"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	out := make(map[domain.CosmeticCategory][]domain.Cosmetic, len(domain.CosmeticCategories))
	for _, cat := range domain.CosmeticCategories {
		out[cat] = progress.Catalog(cat)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCosmetics(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		slots := make([]slotView, 0, len(domain.CosmeticCategories))
		for _, cat := range domain.CosmeticCategories {
			slots = append(slots, slotView{
				Category: cat,
				Selected: sess.Store.SelectedCosmetic(cat),
				Unlocked: sess.Store.UnlockedCosmetics(cat),
			})
		}
		pets := make(map[string]int)
		for _, id := range sess.Store.UnlockedCosmetics(domain.CosmeticPet) {
			pets[id] = sess.Store.PetLevel(id)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"coins": sess.Store.Coins(),
			"slots": slots,
			"pets":  pets,
		})
		return nil
	})
}

func cosmeticParams(r *http.Request) (domain.CosmeticCategory, string) {
	return domain.CosmeticCategory(chi.URLParam(r, "category")), chi.URLParam(r, "id")
}

func (s *Server) handleBuyCosmetic(w http.ResponseWriter, r *http.Request) {
	cat, id := cosmeticParams(r)
	s.withUser(w, r, func(sess *session.Session) error {
		if err := sess.Store.BuyCosmetic(cat, id); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":    id,
			"coins": sess.Store.Coins(),
		})
		return nil
	})
}

func (s *Server) handleSelectCosmetic(w http.ResponseWriter, r *http.Request) {
	cat, id := cosmeticParams(r)
	s.withUser(w, r, func(sess *session.Session) error {
		if err := sess.Store.SelectCosmetic(cat, id); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"category": string(cat),
			"selected": sess.Store.SelectedCosmetic(cat),
		})
		return nil
	})
}

func (s *Server) handleEvolvePet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withUser(w, r, func(sess *session.Session) error {
		lvl, err := sess.Store.EvolvePet(id)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pet":   id,
			"level": lvl,
			"coins": sess.Store.Coins(),
		})
		return nil
	})
}

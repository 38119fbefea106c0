package query

import "docqa-rag/internal/models"

// BuildFilters maps the parsed modality to an equality filter on the stored
// modality field. "any" means no filter. Pure function.
func BuildFilters(parsed *models.ParsedQuery) *models.SearchFilter {
	if parsed == nil || parsed.Modality == models.ModalityAny {
		return nil
	}
	return &models.SearchFilter{Modality: parsed.Modality}
}

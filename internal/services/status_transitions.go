package services

import "deeptech/internal/models"

// Допустимые переходы рабочих статусов. Оба трека идут по одной решётке:
// pending → submitted → verified → approved | rejected.
// rejected можно вернуть в pending (повторная заявка).
var AnnotatorTransitions = map[string]map[string]bool{
	models.StatusPending:   {models.StatusSubmitted: true},
	models.StatusSubmitted: {models.StatusVerified: true, models.StatusRejected: true},
	models.StatusVerified:  {models.StatusApproved: true, models.StatusRejected: true},
	models.StatusApproved:  {},
	models.StatusRejected:  {models.StatusPending: true},
}

var MicroTaskerTransitions = AnnotatorTransitions

func canTransition(current, to string, table map[string]map[string]bool) bool {
	if current == "" {
		// пустой статус в БД — разрешаем стартовый переход
		return to == models.StatusPending || to == models.StatusSubmitted
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}

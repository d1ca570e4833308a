package wizard

import "sync"

// Route - экран, который видит пользователь
type Route string

const (
	RouteWizard  Route = "/"        // Мастер анкеты
	RouteSuccess Route = "/success" // Подтверждение после отправки
)

// Router пускает на экран подтверждения только сразу после успешной отправки.
// Любой другой переход на него возвращает к мастеру.
type Router struct {
	mu      sync.Mutex
	granted map[int64]bool
}

func NewRouter() *Router {
	return &Router{granted: make(map[int64]bool)}
}

// Grant открывает экран подтверждения для одного перехода
func (r *Router) Grant(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.granted[userID] = true
}

// Resolve возвращает экран, который надо показать вместо запрошенного
func (r *Router) Resolve(userID int64, route Route) Route {
	if route != RouteSuccess {
		return RouteWizard
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.granted[userID] {
		return RouteWizard
	}
	delete(r.granted, userID)
	return RouteSuccess
}

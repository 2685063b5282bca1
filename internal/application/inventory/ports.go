package inventory

import "context"

// KeyLocker serializa las mutaciones sobre una misma fila (bodega, item).
// unlock debe llamarse exactamente una vez; llamadas adicionales no tienen efecto.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

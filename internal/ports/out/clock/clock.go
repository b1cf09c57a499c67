package clock

import "time"

// Clock provides time to the application.
// Services stamp CreatedAt/UpdatedAt through it so tests stay deterministic.
type Clock interface {
	Now() time.Time
}

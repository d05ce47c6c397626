package company

import "time"

func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

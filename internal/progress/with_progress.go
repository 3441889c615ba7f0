package progress

import (
	"fmt"
	"time"
)

// Reporter forwards intermediate progress from inside a wrapped operation.
type Reporter func(percent float64, message string)

// WithProgress brackets fn with task creation, start, and guaranteed
// finalization: Complete on success, Fail on error or panic. The task is
// created in reg under the given name and fn receives a Reporter bound to
// it.
func WithProgress(reg *Registry, name string, estimate time.Duration, fn func(report Reporter) error) (err error) {
	id := reg.Create(name, estimate, nil)
	reg.Start(id, "")

	defer func() {
		if rec := recover(); rec != nil {
			reg.Fail(id, fmt.Sprintf("panic: %v", rec))
			panic(rec)
		}
		if err != nil {
			reg.Fail(id, err.Error())
			return
		}
		reg.Complete(id, "")
	}()

	return fn(func(percent float64, message string) {
		reg.UpdateProgress(id, percent, message)
	})
}

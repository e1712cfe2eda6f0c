// Package proc defines the process model shared by the kernel core, the
// scheduling policies and the outer services: lifecycle states, workload
// classes, the user register snapshot and the user-visible info records.
package proc

import "errors"

var errShortBuffer = errors.New("proc: short buffer")

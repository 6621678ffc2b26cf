// SPDX-License-Identifier: BSD-3-Clause

package obslog

import (
	"fmt"
	"log/slog"

	"cirello.io/oversight/v2"
)

// NewOversightLogger adapts l to oversight.Logger, logging restart-tree
// activity at debug level under the "oversight" key.
func NewOversightLogger(l *slog.Logger) oversight.Logger {
	return func(args ...any) {
		l.Debug("oversight", "msg", fmt.Sprint(args...))
	}
}

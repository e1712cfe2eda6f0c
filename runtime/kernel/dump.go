package kernel

import (
	"fmt"
	"io"
)

// Dump writes one line per slot in use, for console debugging
func (k *Kernel) Dump(w io.Writer) {
	fmt.Fprintf(w, "\n")
	for _, info := range k.Processes() {
		fmt.Fprintf(w, "%d %s %s\n", info.PID, info.State, info.Name)
	}
}

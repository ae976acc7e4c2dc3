package display

import (
	"fmt"
	"io"

	"github.com/backmassage/ocrrename/internal/term"
)

const bannerArt = `  ___   ____ ____
 / _ \ / ___|  _ \ _ __ ___ _ __   __ _ _ __ ___   ___
| | | | |   | |_) | '__/ _ \ '_ \ / _` + "`" + ` | '_ ` + "`" + ` _ \ / _ \
| |_| | |___|  _ <| | |  __/ | | | (_| | | | | | |  __/
 \___/ \____|_| \_\_|  \___|_| |_|\__,_|_| |_| |_|\___|
`

// PrintBanner writes the ASCII art banner and version line to w; magenta when
// colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta.Sprint(bannerArt))
	fmt.Fprintln(w, term.Dim.Sprint("  bulk rename scanned documents by their text  ·  "+version))
}

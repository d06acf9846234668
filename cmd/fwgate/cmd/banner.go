package cmd

import (
	"fmt"
	"io"
)

const banner = `
   __                       _
  / _|_      ____ _  __ _ | |_ ___
 | |_\ \ /\ / / _' |/ _' || __/ _ \
 |  _|\ V  V / (_| | (_| || ||  __/
 |_|   \_/\_/ \__, |\__,_| \__\___|
              |___/
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Speech Service Login Gate - Version %s\x1b[0m\n\n", Version)
}

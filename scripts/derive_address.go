// derive_address.go prints the derived address and bump for a program and
// a list of seeds. A seed is an address (base58 or hex), or a literal
// string when prefixed with "str:".
// Usage: go run scripts/derive_address.go <program-name> <seed>...
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-mintgate/pkg/crypto"
	"github.com/Klingon-tech/klingnet-mintgate/pkg/types"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: derive_address <program-name> <seed>...")
		os.Exit(1)
	}
	program := crypto.ProgramIDFromName(os.Args[1])

	var seeds [][]byte
	for _, arg := range os.Args[2:] {
		if s, ok := strings.CutPrefix(arg, "str:"); ok {
			seeds = append(seeds, []byte(s))
			continue
		}
		addr, err := types.ParseAddress(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed %q: %v\n", arg, err)
			os.Exit(1)
		}
		seeds = append(seeds, addr.Bytes())
	}

	addr, bump, err := crypto.FindProgramAddress(seeds, program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("program=%s\n", program)
	fmt.Printf("address=%s\n", addr)
	fmt.Printf("bump=%d\n", bump)
}

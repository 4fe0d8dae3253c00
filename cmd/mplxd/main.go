package main

import "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/cli"

func main() {
	cli.Execute()
}

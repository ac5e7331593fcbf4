// Command espefuse reads, burns and protects the eFuses of ESP chips.
//
// Only the emulated chip is supported as a target (--virt); its eFuse array
// can be kept between runs with --path-efuse-file.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

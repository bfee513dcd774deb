/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"m6800asm/assembler"
)

var outputPath string

var rootCmd = &cobra.Command{
	Use:   "asm6800 source-file",
	Short: "Two-pass assembler for the Motorola 6800 instruction set",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for assembled bytes (default: source-file.bin)")
}

func run(cmd *cobra.Command, args []string) error {
	name := args[0]
	src, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read source file %s: %w", name, err)
	}

	result, err := assembler.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	dest := outputPath
	if dest == "" {
		dest = name + ".bin"
	}
	if err := os.WriteFile(dest, result.Code, 0o644); err != nil {
		return fmt.Errorf("write output file %s: %w", dest, err)
	}

	log.Printf("%s: assembled %d bytes to %s\n", name, len(result.Code), dest)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
